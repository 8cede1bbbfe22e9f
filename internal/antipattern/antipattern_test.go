package antipattern

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

const gitSignature = `diff --git a/handler.py b/handler.py
index 3b18e51..a9c2f07 100644
--- a/handler.py
+++ b/handler.py
@@ -1,4 +1,4 @@
 try:
     run()
-except:
+except Exception:
     pass
`

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		name      string
		signature string
		want      []string
	}{
		{
			name:      "snippet takes removed and added lines",
			signature: "-    except:\n+    except Exception:\n",
			want:      []string{"except:", "except"},
		},
		{
			name:      "git diff",
			signature: gitSignature,
			want:      []string{"try:", "run()", "except:", "except", "pass"},
		},
		{
			name:      "context lines in order",
			signature: "@@ -1,3 +1,3 @@\n def handler():\n-    x = eval(data)\n+    x = json.loads(data)\n",
			want:      []string{"handler():", "eval(data)", "json.loads(data)"},
		},
		{
			name:      "added only",
			signature: "+import logging\n+log = logging.getLogger(__name__)\n",
			want:      []string{"logging", "log"},
		},
		{
			name:      "keywords skipped",
			signature: "-def handler(req):\n-    return req.body\n",
			want:      []string{"handler(req):", "req.body"},
		},
		{
			name:      "short words skipped",
			signature: "-a = b\n-x.y\n",
			want:      []string{"x.y"},
		},
		{
			name:      "capped at five",
			signature: "-one1\n-two2\n-three\n-four\n-five\n-six6\n-seven\n",
			want:      []string{"one1", "two2", "three", "four", "five"},
		},
		{
			name:      "headers only",
			signature: "--- a/x.py\n+++ b/x.py\n@@ -1 +1 @@\n",
			want:      nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTokens(tt.signature)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTokens() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractScopedTokens(t *testing.T) {
	tests := []struct {
		name      string
		signature string
		scope     Scope
		want      []string
	}{
		{
			name:      "removed lines only",
			signature: gitSignature,
			scope:     ScopeRemoved,
			want:      []string{"except:"},
		},
		{
			name:      "removed falls back to content",
			signature: "+import logging\n",
			scope:     ScopeRemoved,
			want:      []string{"logging"},
		},
		{
			name:      "content scope matches default",
			signature: "-    except:\n+    except Exception:\n",
			scope:     ScopeContent,
			want:      []string{"except:", "except"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractScopedTokens(tt.signature, tt.scope)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractScopedTokens() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckFlagsBareExcept(t *testing.T) {
	v := FromSignature("pat-bare-except", "PY001", "-    except:\n+    except Exception:\n", "bare except")

	source := "def f():\n    try:\n        g()\n    except:\n        pass\n"
	got := v.Check(source, "svc/handler.py")

	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %d: %+v", len(got), got)
	}
	vio := got[0]
	if vio.LineNumber != 4 {
		t.Errorf("LineNumber = %d, want 4", vio.LineNumber)
	}
	if vio.MatchedText != "except:" {
		t.Errorf("MatchedText = %q", vio.MatchedText)
	}
	if vio.FilePath != "svc/handler.py" || vio.RuleID != "PY001" || vio.PatternID != "pat-bare-except" {
		t.Errorf("unexpected attribution: %+v", vio)
	}
}

func TestCheckOneViolationPerLine(t *testing.T) {
	v := New("pat", "rule", "", []string{"alpha", "beta"})

	got := v.Check("alpha beta\nbeta only\nnothing\n", "f.txt")

	if len(got) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(got))
	}
	if got[0].LineNumber != 1 || got[1].LineNumber != 2 {
		t.Errorf("line numbers = %d, %d", got[0].LineNumber, got[1].LineNumber)
	}
}

func TestCheckEmpty(t *testing.T) {
	withTokens := New("pat", "rule", "", []string{"except:"})
	noTokens := FromSignature("pat", "rule", "", "")

	if got := withTokens.Check("", "f.py"); len(got) != 0 {
		t.Errorf("empty source: %v", got)
	}
	if got := noTokens.Check("except:\n", "f.py"); len(got) != 0 {
		t.Errorf("no tokens: %v", got)
	}
	var nilValidator *Validator
	if got := nilValidator.Check("except:", "f.py"); got != nil {
		t.Errorf("nil validator: %v", got)
	}
}

func TestCheckCRLF(t *testing.T) {
	v := New("pat", "rule", "", []string{"except:"})
	got := v.Check("try:\r\n    x()\r\nexcept:\r\n", "f.py")
	if len(got) != 1 || got[0].LineNumber != 3 || got[0].MatchedText != "except:" {
		t.Errorf("unexpected violations: %+v", got)
	}
}

func TestTokensReturnsCopy(t *testing.T) {
	v := New("pat", "rule", "", []string{"first", "", "second"})

	toks := v.Tokens()
	if !reflect.DeepEqual(toks, []string{"first", "second"}) {
		t.Fatalf("Tokens() = %q", toks)
	}
	toks[0] = "mutated"
	if v.Tokens()[0] != "first" {
		t.Error("Tokens() must not expose internal state")
	}
}

func TestValidatorIDIsUUID(t *testing.T) {
	a := New("pat", "rule", "", nil)
	b := New("pat", "rule", "", nil)

	if _, err := uuid.Parse(a.ValidatorID); err != nil {
		t.Errorf("ValidatorID %q is not a UUID: %v", a.ValidatorID, err)
	}
	if a.ValidatorID == b.ValidatorID {
		t.Error("validator IDs must be unique")
	}
}

func TestDescriptor(t *testing.T) {
	v := FromSignature("pat", "rule", gitSignature, "bare except")
	d := v.Descriptor()
	if d.ValidatorID != v.ValidatorID || d.Description != "bare except" {
		t.Errorf("unexpected descriptor %+v", d)
	}
	if strings.Join(d.Tokens, ",") != "try:,run(),except:,except,pass" {
		t.Errorf("tokens = %q", d.Tokens)
	}
}
