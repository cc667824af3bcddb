package sbuild

import "testing"

func TestExtractDescriptor(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name: "typical dpkg-source output",
			output: "dpkg-source: info: using source format '3.0 (native)'\n" +
				"dpkg-source: info: building profiler in profiler_1.0.5.tar.xz\n" +
				"dpkg-source: info: building profiler in profiler_1.0.5.dsc\n",
			want: "profiler_1.0.5.dsc",
		},
		{
			name:   "no descriptor line",
			output: "dpkg-source: error: cannot read debian/control\n",
			want:   "",
		},
		{
			name:   "empty output",
			output: "",
			want:   "",
		},
		{
			name: "dsc mentioned mid-line only",
			output: "dpkg-source: warning: something.dsc related happened here\n" +
				"dpkg-source: info: building pkg in pkg_2.1.dsc\n",
			want: "pkg_2.1.dsc",
		},
		{
			name:   "last token wins on the matching line",
			output: "dpkg-source: info: building weird in  spaced_1.0.dsc",
			want:   "spaced_1.0.dsc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDescriptor(tt.output); got != tt.want {
				t.Errorf("ExtractDescriptor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChangesPath(t *testing.T) {
	got := ChangesPath("/work", "/work/pkg_1.0.5.dsc", "amd64")
	want := "/work/pkg_1.0.5_amd64.changes"
	if got != want {
		t.Errorf("ChangesPath() = %q, want %q", got, want)
	}
}
