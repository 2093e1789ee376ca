package main

import "testing"

func TestNewRootCmdDefaults(t *testing.T) {
	cmd := newRootCmd()
	flags := cmd.Flags()

	checks := []struct {
		name string
		want string
	}{
		{"outdir", "ragout-out"},
		{"synteny", "sibelia"},
	}
	for _, c := range checks {
		got, err := flags.GetString(c.name)
		if err != nil {
			t.Fatalf("GetString(%q): %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("flag %q default = %q, want %q", c.name, got, c.want)
		}
	}

	threads, err := flags.GetInt("threads")
	if err != nil {
		t.Fatalf("GetInt(threads): %v", err)
	}
	if threads != 1 {
		t.Fatalf("threads default = %d, want 1", threads)
	}
}

func TestNewRootCmdRequiresExactlyOneArg(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Args(cmd, nil); err == nil {
		t.Fatal("expected an error with zero positional args")
	}
	if err := cmd.Args(cmd, []string{"recipe.yaml"}); err != nil {
		t.Fatalf("expected no error with exactly one positional arg, got %v", err)
	}
	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Fatal("expected an error with two positional args")
	}
}
