package processor

import "testing"

func TestNewNaming(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		outputBase string
		outputDir  string
		want       Naming
	}{
		{"plain", "talk.mp4", "", "", Naming{Base: "talk", Ext: ".mp4", OutputDir: "."}},
		{"nested input", "/media/2024/talk.mkv", "", "", Naming{Base: "talk", Ext: ".mkv", OutputDir: "."}},
		{"base override", "/media/talk.mp4", "keynote", "out", Naming{Base: "keynote", Ext: ".mp4", OutputDir: "out"}},
		{"base override with path", "talk.mp4", "clips/keynote", "", Naming{Base: "keynote", Ext: ".mp4", OutputDir: "."}},
		{"dotted name", "my.talk.final.wav", "", "", Naming{Base: "my.talk.final", Ext: ".wav", OutputDir: "."}},
		{"no extension", "recording", "", "", Naming{Base: "recording", Ext: "", OutputDir: "."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewNaming(tt.input, tt.outputBase, tt.outputDir); got != tt.want {
				t.Errorf("NewNaming(%q, %q, %q) = %+v, want %+v",
					tt.input, tt.outputBase, tt.outputDir, got, tt.want)
			}
		})
	}
}

func TestClipName(t *testing.T) {
	n := Naming{Base: "talk", Ext: ".mp4"}
	tests := []struct {
		index, total int
		want         string
	}{
		{0, 1, "talk.1.mp4"},
		{8, 9, "talk.9.mp4"},
		{0, 10, "talk.01.mp4"},
		{9, 10, "talk.10.mp4"},
		{4, 120, "talk.005.mp4"},
		{119, 120, "talk.120.mp4"},
	}

	for _, tt := range tests {
		if got := n.ClipName(tt.index, tt.total); got != tt.want {
			t.Errorf("ClipName(%d, %d) = %q, want %q", tt.index, tt.total, got, tt.want)
		}
	}
}

func TestDirPattern(t *testing.T) {
	if got := (Naming{Base: "talk"}).DirPattern(); got != "autocut_talk_" {
		t.Errorf("DirPattern() = %q, want %q", got, "autocut_talk_")
	}
}
