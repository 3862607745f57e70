package cmd

import "testing"

func TestParseRegionSpec(t *testing.T) {
	t.Parallel()

	spec, err := parseRegionSpec("0:1000:2000")
	if err != nil {
		t.Fatalf("parseRegionSpec: %v", err)
	}

	if spec.region != 0 || spec.offset != 0x1000 || spec.size != 0x2000 {
		t.Errorf("spec = %+v, want region=0 offset=0x1000 size=0x2000", spec)
	}
}

func TestParseRegionSpecRejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := []string{"", "0:1000", "x:1000:2000", "0:zz:2000", "0:1000:zz"}

	for _, c := range cases {
		if _, err := parseRegionSpec(c); err == nil {
			t.Errorf("parseRegionSpec(%q): expected error", c)
		}
	}
}

func TestBuildMemoryDefinesRegions(t *testing.T) {
	t.Parallel()

	iccm := regionSpecList{{region: 0, offset: 0, size: 0x1000}}
	dccm := regionSpecList{{region: 0, offset: 0x1000, size: 0x1000}}

	m, err := buildMemory(8*1024*1024, 1, iccm, dccm, nil)
	if err != nil {
		t.Fatalf("buildMemory: %v", err)
	}

	attrs, ok := m.PageAttributesAt(0)
	if !ok || !attrs.ICCM() {
		t.Errorf("expected ICCM at 0, got %s", attrs)
	}

	attrs, ok = m.PageAttributesAt(0x1000)
	if !ok || !attrs.DCCM() {
		t.Errorf("expected DCCM at 0x1000, got %s", attrs)
	}
}

func TestBuildMemoryRejectsBadRegion(t *testing.T) {
	t.Parallel()

	bad := regionSpecList{{region: 0, offset: 1, size: 0x1000}} // not page-aligned

	if _, err := buildMemory(8*1024*1024, 1, bad, nil, nil); err == nil {
		t.Error("expected buildMemory to fail on a non-page-aligned region")
	}
}
