package gpuparams

import (
	"fmt"
	"sort"
	"strings"
)

// PrepareShaderSource inserts #define lines directly after the #version
// directive, or at the top when there is none. Defines are emitted in
// sorted key order.
func PrepareShaderSource(src string, defines map[string]string) string {
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var block strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&block, "#define %s %s\n", k, defines[k])
	}

	start := strings.Index(src, "#version")
	if start < 0 || strings.TrimSpace(src[:start]) != "" {
		return block.String() + src
	}
	end := strings.IndexByte(src[start:], '\n')
	if end < 0 {
		return src + "\n" + block.String()
	}
	cut := start + end + 1
	return src[:cut] + block.String() + src[cut:]
}
