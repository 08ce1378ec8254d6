package distractor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/llm"
	"github.com/abhisek/timestables/internal/rng"
)

func request(a, b int) Request {
	return Request{
		Fact:       catalog.Fact{ID: catalog.FactID(a, b), A: a, B: b, Text: catalog.FactText(a, b)},
		StageType:  config.StagePracticeFast,
		Mode:       config.ModePractice,
		MaxOperand: 10,
	}
}

func checkChoices(t *testing.T, choices []Choice, correct, lo, hi int) {
	t.Helper()
	seen := map[int]bool{}
	nCorrect := 0
	for _, c := range choices {
		if seen[c.Value] {
			t.Errorf("duplicate value %d in %v", c.Value, choices)
		}
		seen[c.Value] = true
		if c.Correct {
			nCorrect++
			if c.Value != correct {
				t.Errorf("correct choice = %d, want %d", c.Value, correct)
			}
			continue
		}
		if c.Value < lo || c.Value > hi {
			t.Errorf("distractor %d outside [%d, %d]", c.Value, lo, hi)
		}
	}
	if nCorrect != 1 {
		t.Errorf("got %d correct choices, want exactly 1", nCorrect)
	}
}

func TestGenerate_ValidForEveryFact(t *testing.T) {
	cat := catalog.Default()
	cfg := config.Default().Distractors
	for seed := uint64(1); seed <= 5; seed++ {
		g := New(cfg, rng.New(seed))
		for _, fs := range cat.FactSets() {
			for _, f := range fs.Facts {
				req := Request{Fact: f, StageType: config.StagePracticeSlow, Mode: config.ModePractice, MaxOperand: cat.MaxOperand()}
				choices := g.Generate(context.Background(), req)
				if len(choices) != Needed+1 {
					t.Fatalf("%s: got %d choices, want %d", f.ID, len(choices), Needed+1)
				}
				checkChoices(t, choices, f.Answer(), cfg.MinValue, g.MaxValue(cat.MaxOperand()))
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := config.Default().Distractors
	a := New(cfg, rng.New(3)).Generate(context.Background(), request(7, 8))
	b := New(cfg, rng.New(3)).Generate(context.Background(), request(7, 8))
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed, different choices: %v vs %v", a, b)
		}
	}
}

func TestGenerate_ShortfallDegrades(t *testing.T) {
	cfg := config.Default().Distractors
	cfg.MinValue = 0
	cfg.MaxValue = 2
	g := New(cfg, rng.New(1))

	choices := g.Generate(context.Background(), request(1, 1))
	if len(choices) != 3 {
		t.Fatalf("got %d choices, want 3 (only 0 and 2 are valid distractors): %v", len(choices), choices)
	}
	checkChoices(t, choices, 1, 0, 2)
}

func TestGenerate_AllStrategiesDisabledUsesFallback(t *testing.T) {
	cfg := config.Default().Distractors
	cfg.Strategies = nil
	g := New(cfg, rng.New(9))

	choices := g.Generate(context.Background(), request(6, 7))
	if len(choices) != Needed+1 {
		t.Fatalf("got %d choices, want %d", len(choices), Needed+1)
	}
	checkChoices(t, choices, 42, cfg.MinValue, g.MaxValue(10))
}

type fixed struct {
	name string
	vals []int
}

func (f fixed) Name() string                              { return f.name }
func (f fixed) Generate(context.Context, *Context) []int { return f.vals }

func TestGenerate_WeightsAreNormalized(t *testing.T) {
	cfg := config.Default().Distractors
	cfg.FallbackAttempts = 0
	cfg.Strategies = map[string]config.StrategyConfig{
		"stub": {Enabled: true, Weight: 5, MaxContribution: 3},
	}
	g := New(cfg, rng.New(2), WithStrategy(fixed{name: "stub", vals: []int{90, 91, 92, 93}}))

	choices := g.Generate(context.Background(), request(4, 5))
	if len(choices) != Needed+1 {
		t.Fatalf("got %v, want the stub to fill all three slots", choices)
	}
	for _, c := range choices {
		if !c.Correct && (c.Value < 90 || c.Value > 93) {
			t.Errorf("unexpected distractor %d", c.Value)
		}
	}
}

func TestGenerate_MaxContributionCaps(t *testing.T) {
	cfg := config.Default().Distractors
	cfg.FallbackAttempts = 0
	cfg.Strategies = map[string]config.StrategyConfig{
		"stub": {Enabled: true, Weight: 1, MaxContribution: 1},
	}
	g := New(cfg, rng.New(2), WithStrategy(fixed{name: "stub", vals: []int{90, 91, 92}}))

	choices := g.Generate(context.Background(), request(4, 5))
	if len(choices) != 2 {
		t.Fatalf("got %v, want one distractor", choices)
	}
}

func TestGenerate_UnconfiguredStrategyIgnored(t *testing.T) {
	cfg := config.Default().Distractors
	g := New(cfg, rng.New(4), WithStrategy(fixed{name: "unlisted", vals: []int{99}}))
	for i := 0; i < 20; i++ {
		for _, c := range g.Generate(context.Background(), request(2, 2)) {
			if c.Value == 99 {
				t.Fatal("strategy without configuration contributed a value")
			}
		}
	}
}

func TestMaxValueDefault(t *testing.T) {
	g := New(config.DistractorConfig{}, rng.New(1))
	if got := g.MaxValue(12); got != 156 {
		t.Errorf("MaxValue(12) = %d, want 156", got)
	}
	g = New(config.DistractorConfig{MaxValue: 50}, rng.New(1))
	if got := g.MaxValue(12); got != 50 {
		t.Errorf("MaxValue(12) = %d, want configured 50", got)
	}
}

func contains(vals []int, v int) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

func TestRuleStrategies(t *testing.T) {
	c := &Context{Fact: catalog.Fact{A: 3, B: 4}, Correct: 12}

	cm := CommonMistakes{}.Generate(context.Background(), c)
	for _, want := range []int{7, 34, 15, 9, 16, 8, 10, 21} {
		if !contains(cm, want) {
			t.Errorf("common mistakes missing %d: %v", want, cm)
		}
	}

	fv := FactorVariation{}.Generate(context.Background(), c)
	for _, want := range []int{16, 8, 15, 9, 20, 4, 18, 6} {
		if !contains(fv, want) {
			t.Errorf("factor variation missing %d: %v", want, fv)
		}
	}

	tn := TableNeighbors{}.Generate(context.Background(), c)
	for _, want := range []int{20, 6, 12, 10} {
		if !contains(tn, want) {
			t.Errorf("table neighbors missing %d: %v", want, tn)
		}
	}
}

func TestReverseDigits(t *testing.T) {
	tests := map[int]int{12: 21, 40: 4, 7: 7, 123: 321, -12: -21}
	for in, want := range tests {
		if got := reverseDigits(in); got != want {
			t.Errorf("reverseDigits(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestLLMStrategy(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"distractors":[{"value":54,"misconception":"counted one group short"},{"value":56,"misconception":"correct"},{"value":15,"misconception":"added"}]}`),
	})
	s := NewLLMStrategy(mock, 0, nil)
	c := &Context{Fact: catalog.Fact{ID: "7x8", A: 7, B: 8, Text: "7 × 8"}, Correct: 56, MaxValue: 110}

	got := s.Generate(context.Background(), c)
	if len(got) != 2 || got[0] != 54 || got[1] != 15 {
		t.Errorf("got %v, want [54 15] with the correct product dropped", got)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
	if mock.Calls[0].Schema != DistractorSchema {
		t.Error("request did not carry the distractor schema")
	}
}

func TestLLMStrategy_FailuresYieldNothing(t *testing.T) {
	c := &Context{Fact: catalog.Fact{ID: "7x8", A: 7, B: 8}, Correct: 56}

	mock := llm.NewMockProvider(
		llm.MockResponse{Err: errors.New("boom")},
		llm.MockResponse{Content: json.RawMessage(`not json`)},
	)
	s := NewLLMStrategy(mock, 0, nil)
	if got := s.Generate(context.Background(), c); got != nil {
		t.Errorf("provider error: got %v, want nil", got)
	}
	if got := s.Generate(context.Background(), c); got != nil {
		t.Errorf("bad JSON: got %v, want nil", got)
	}
	if got := NewLLMStrategy(nil, 0, nil).Generate(context.Background(), c); got != nil {
		t.Errorf("nil provider: got %v, want nil", got)
	}
}

func TestGenerate_WithLLMStrategyEnabled(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"distractors":[{"value":48,"misconception":"6x8"},{"value":63,"misconception":"7x9"},{"value":65,"misconception":"reversed"}]}`),
	})
	cfg := config.Default().Distractors
	cfg.Strategies = map[string]config.StrategyConfig{
		NameLLM: {Enabled: true, Weight: 1, MaxContribution: 3},
	}
	g := New(cfg, rng.New(5), WithStrategy(NewLLMStrategy(mock, 0, nil)))

	choices := g.Generate(context.Background(), request(7, 8))
	checkChoices(t, choices, 56, 0, 110)
	for _, c := range choices {
		if !c.Correct && !contains([]int{48, 63, 65}, c.Value) {
			t.Errorf("unexpected distractor %d", c.Value)
		}
	}
}
