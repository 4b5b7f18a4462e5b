package policy

import (
	"os"
	"path/filepath"
	"testing"

	"rfv_copilot_backend/internal/rfv/domain"
)

func TestDefaultPolicyIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default policy must validate: %v", err)
	}
}

func TestSegmentFor(t *testing.T) {
	p := Default()

	tests := []struct {
		name      string
		r, f, v   int
		frequency int
		want      domain.Segment
	}{
		{"top tier everywhere", 5, 5, 5, 12, domain.SegmentCampeao},
		{"single recent purchase", 5, 1, 2, 1, domain.SegmentNovo},
		{"high frequency mid recency", 3, 5, 3, 20, domain.SegmentFiel},
		{"recent with few orders", 5, 2, 2, 3, domain.SegmentPromissor},
		{"frequent but aging", 2, 3, 3, 8, domain.SegmentAtencao},
		{"long unseen with history", 1, 2, 2, 4, domain.SegmentRisco},
		{"long unseen thin history", 1, 1, 1, 2, domain.SegmentHibernando},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.SegmentFor(tc.r, tc.f, tc.v, tc.frequency); got != tc.want {
				t.Errorf("SegmentFor(%d, %d, %d, freq=%d) = %q, want %q",
					tc.r, tc.f, tc.v, tc.frequency, got, tc.want)
			}
		})
	}
}

func TestChurnRiskFor(t *testing.T) {
	p := Default()
	dev := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		deviation *float64
		recency   int
		want      domain.ChurnRisk
	}{
		{"deviation under medium band", dev(60), 10, domain.ChurnRiskLow},
		{"deviation in medium band", dev(105), 10, domain.ChurnRiskMedium},
		{"deviation past escalation", dev(150), 10, domain.ChurnRiskHigh},
		{"no cycle, fresh purchase", nil, 15, domain.ChurnRiskLow},
		{"no cycle, aging purchase", nil, 120, domain.ChurnRiskMedium},
		{"no cycle, long unseen", nil, 200, domain.ChurnRiskHigh},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.ChurnRiskFor(tc.deviation, tc.recency); got != tc.want {
				t.Errorf("ChurnRiskFor = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	contents := []byte(`
scoreBins: 4
deviation:
  preventiveMinPct: 60
  reactivationMinPct: 110
  escalationMinPct: 140
`)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ScoreBins != 4 {
		t.Errorf("expected scoreBins 4, got %d", p.ScoreBins)
	}
	if p.Deviation.ReactivationMinPct != 110 {
		t.Errorf("expected reactivationMinPct 110, got %v", p.Deviation.ReactivationMinPct)
	}
	// Sections absent from the file keep their defaults.
	if len(p.Segments) == 0 {
		t.Error("segment table must fall back to defaults")
	}
}

func TestLoadRejectsUnorderedBands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	contents := []byte(`
deviation:
  preventiveMinPct: 120
  reactivationMinPct: 100
  escalationMinPct: 130
`)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unordered deviation bands")
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if p.ScoreBins != Default().ScoreBins {
		t.Error("empty path must return the default policy")
	}
}
