package gpuparams

import "testing"

func TestPrepareShaderSource(t *testing.T) {
	defines := map[string]string{"TILE_SIZE": "8", "CRAWLER_COUNT": "1300"}

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"after version",
			"#version 430\nvoid main() {}\n",
			"#version 430\n#define CRAWLER_COUNT 1300\n#define TILE_SIZE 8\nvoid main() {}\n",
		},
		{
			"no version",
			"void main() {}\n",
			"#define CRAWLER_COUNT 1300\n#define TILE_SIZE 8\nvoid main() {}\n",
		},
		{
			"version without newline",
			"#version 430",
			"#version 430\n#define CRAWLER_COUNT 1300\n#define TILE_SIZE 8\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrepareShaderSource(tt.src, defines); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}
