package sim

import (
	"flag"
	"testing"
)

func TestParseOptionsDefaults(t *testing.T) {
	o, err := ParseOptions("test", nil, nil)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	want := ProcessOptions{
		LogLevel:  "info",
		LogFormat: "console",
		Level:     "arena.yaml",
		Tuning:    "grapple.yaml",
		PrefabDir: "prefabs",
		HotReload: true,
	}
	if o != want {
		t.Fatalf("options = %+v, want %+v", o, want)
	}
}

func TestParseOptionsEnvAndFlags(t *testing.T) {
	t.Setenv("GRAPPLEHOOK_LOG_LEVEL", "debug")
	t.Setenv("GRAPPLEHOOK_TUNING", "slow.yaml")
	t.Setenv("GRAPPLEHOOK_HOT_RELOAD", "false")

	var frames int
	o, err := ParseOptions("test", []string{"-tuning", "fast.yaml", "-prefabs", "", "-frames", "12"}, func(fs *flag.FlagSet) {
		fs.IntVar(&frames, "frames", 0, "")
	})
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if o.LogLevel != "debug" {
		t.Fatalf("env should set the log level, got %q", o.LogLevel)
	}
	if o.Tuning != "fast.yaml" {
		t.Fatalf("flags should override env, got %q", o.Tuning)
	}
	if o.HotReload {
		t.Fatal("hot reload should be off from env")
	}
	if o.PrefabDir != "" {
		t.Fatalf("prefab dir = %q, want empty", o.PrefabDir)
	}
	if frames != 12 {
		t.Fatalf("extra flag = %d, want 12", frames)
	}
}

func TestParseOptionsErrors(t *testing.T) {
	if _, err := ParseOptions("test", []string{"-no-such-flag"}, nil); err == nil {
		t.Fatal("unknown flags should fail")
	}

	t.Setenv("GRAPPLEHOOK_HOT_RELOAD", "sometimes")
	if _, err := ParseOptions("test", nil, nil); err == nil {
		t.Fatal("a malformed bool in the environment should fail")
	}
}
