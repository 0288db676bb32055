package query

import (
	"errors"
	"reflect"
	"testing"
)

func TestAnalyze_EmptyQuery(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := Analyze(input)
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Analyze(%q): expected ErrEmptyQuery, got %v", input, err)
		}
	}
}

func TestAnalyze_Normalization(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"What is FIFO?", "what is fifo"},
		{"Cross-docking   vs.  wave picking!", "cross-docking vs wave picking"},
		{"  How do I set up a WMS??  ", "how do i set up a wms"},
		{"inventory, (audit)", "inventory audit"},
	}

	for _, tt := range tests {
		ctx, err := Analyze(tt.input)
		if err != nil {
			t.Fatalf("Analyze(%q): unexpected error %v", tt.input, err)
		}
		if ctx.Normalized != tt.want {
			t.Errorf("Analyze(%q).Normalized = %q, want %q", tt.input, ctx.Normalized, tt.want)
		}
		if ctx.Original != tt.input {
			t.Errorf("Analyze(%q).Original = %q, want the raw input", tt.input, ctx.Original)
		}
	}
}

func TestAnalyze_TypeClassification(t *testing.T) {
	tests := []struct {
		query string
		want  Type
	}{
		{"what is FIFO", TypeDefinition},
		{"define cycle counting", TypeDefinition},
		{"how to configure wave picking", TypeProcedural},
		{"steps for receiving", TypeProcedural},
		{"fifo vs lifo", TypeComparative},
		{"difference between fifo and lifo", TypeComparative},
		{"list examples of picking methods", TypeEnumeration},
		{"types of inventory audits", TypeEnumeration},
		{"warehouse slotting strategy", TypeGeneral},
		// First matching rule wins: "what is" beats "compare".
		{"what is the best picking method", TypeDefinition},
	}

	for _, tt := range tests {
		ctx, err := Analyze(tt.query)
		if err != nil {
			t.Fatalf("Analyze(%q): unexpected error %v", tt.query, err)
		}
		if ctx.Type != tt.want {
			t.Errorf("Analyze(%q).Type = %q, want %q", tt.query, ctx.Type, tt.want)
		}
	}
}

func TestAnalyze_IntentDetection(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{"explain cross-docking", IntentEducational},
		{"learn about safety stock", IntentEducational},
		{"implement barcode scanning", IntentImplementation},
		{"configure the wms", IntentImplementation},
		{"fix inventory discrepancy issue", IntentTroubleshooting},
		// Scenario: "what is FIFO" carries no intent keyword.
		{"what is FIFO", IntentInformational},
		{"warehouse layout", IntentInformational},
	}

	for _, tt := range tests {
		ctx, err := Analyze(tt.query)
		if err != nil {
			t.Fatalf("Analyze(%q): unexpected error %v", tt.query, err)
		}
		if ctx.Intent != tt.want {
			t.Errorf("Analyze(%q).Intent = %q, want %q", tt.query, ctx.Intent, tt.want)
		}
	}
}

func TestAnalyze_EntityExtraction(t *testing.T) {
	ctx, err := Analyze("Is wave picking faster than normal picking in a WMS?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Vocabulary order, deduplicated. "picking" matches as a substring of
	// "wave picking" but appears only once.
	want := []string{"wave picking", "wms", "picking"}
	if !reflect.DeepEqual(ctx.Entities, want) {
		t.Errorf("Entities = %v, want %v", ctx.Entities, want)
	}
}

func TestAnalyze_Expansions(t *testing.T) {
	ctx, err := Analyze("inventory shipping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"stock", "supplies", "dispatch", "outbound"}
	if !reflect.DeepEqual(ctx.Expansions, want) {
		t.Errorf("Expansions = %v, want %v", ctx.Expansions, want)
	}
}

func TestAnalyze_ExpansionsKeepDuplicates(t *testing.T) {
	ctx, err := Analyze("inventory inventory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"stock", "supplies", "stock", "supplies"}
	if !reflect.DeepEqual(ctx.Expansions, want) {
		t.Errorf("Expansions = %v, want %v", ctx.Expansions, want)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	const q = "how to optimize inventory receiving in a warehouse"

	first, err := Analyze(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Analyze(q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Analyze is not deterministic: %+v != %+v", first, again)
		}
	}
}

func TestContext_Terms(t *testing.T) {
	ctx, err := Analyze("inventory count inventory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Union of query words and expansions, deduplicated, first-seen order.
	want := []string{"inventory", "count", "stock", "supplies", "audit", "tally"}
	if !reflect.DeepEqual(ctx.Terms(), want) {
		t.Errorf("Terms() = %v, want %v", ctx.Terms(), want)
	}
}
