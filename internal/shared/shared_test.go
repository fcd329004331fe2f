package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected log output to contain message, got %q", buf.String())
	}

	t.Run("nil writer defaults to stderr", func(t *testing.T) {
		if NewLogger(nil) == nil {
			t.Fatal("expected logger to be created")
		}
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		var out bytes.Buffer
		l := NewLogger(&out)
		SetLogLevel(l, log.ErrorLevel)

		l.Info("suppressed")
		if strings.Contains(out.String(), "suppressed") {
			t.Error("info log should be suppressed at error level")
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var out bytes.Buffer
		l := WithLogger(NewLogger(&out), "component", "test")

		l.Info("tagged")
		if !strings.Contains(out.String(), "component") {
			t.Errorf("expected child logger fields in output, got %q", out.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Error("expected unique IDs")
	}
	if len(strings.Split(a, "-")) != 5 {
		t.Errorf("expected UUID format, got %s", a)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"count": 3}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(string(compact), "\n") {
		t.Error("compact output should not contain newlines")
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Error("pretty output should be indented")
	}
}

func TestBrowserCommand(t *testing.T) {
	cases := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "cmd"},
	}

	for _, tc := range cases {
		t.Run(tc.goos, func(t *testing.T) {
			argv, err := browserCommand(tc.goos, "http://127.0.0.1:3000")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if argv[0] != tc.want {
				t.Errorf("expected %s, got %s", tc.want, argv[0])
			}
			if argv[len(argv)-1] != "http://127.0.0.1:3000" {
				t.Errorf("expected URL as final argument, got %v", argv)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		if _, err := browserCommand("plan9", "http://127.0.0.1:3000"); err == nil {
			t.Error("expected an error")
		}
	})
}
