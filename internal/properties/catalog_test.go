package properties

import "testing"

func TestTemplates_OrderAndGroups(t *testing.T) {
	all := Templates()
	if len(all) != 8 {
		t.Fatalf("Templates() = %d, want 8", len(all))
	}
	if all[0].Name != "Default" {
		t.Errorf("first template = %q, want Default", all[0].Name)
	}

	standard := Standard()
	series := TimeSeries()
	if len(standard)+len(series) != len(all) {
		t.Errorf("groups %d + %d != %d", len(standard), len(series), len(all))
	}

	wantStandard := []string{"Default", "Dark Teal", "Animated Sunset", "Scientific Viridis", "Warm Magma", "Cool Blues"}
	for i, name := range wantStandard {
		if standard[i].Name != name {
			t.Errorf("Standard()[%d] = %q, want %q", i, standard[i].Name, name)
		}
	}
	for _, tmpl := range series {
		if !tmpl.HasTimeData {
			t.Errorf("%q in TimeSeries() without HasTimeData", tmpl.Name)
		}
	}
}

func TestLookup(t *testing.T) {
	tmpl, ok := Lookup("Cool Blues")
	if !ok {
		t.Fatal("Lookup(Cool Blues) not found")
	}
	if tmpl.Config[KeyFadeAmount] != "50" {
		t.Errorf("fadeAmount = %q, want 50", tmpl.Config[KeyFadeAmount])
	}

	if _, ok := Lookup("cool blues"); ok {
		t.Error("Lookup should be case-sensitive on names")
	}
}

func TestLookup_ReturnsCopies(t *testing.T) {
	tmpl, _ := Lookup("Default")
	tmpl.Config[KeyColorScheme] = "Mutated"

	again, _ := Lookup("Default")
	if again.Config[KeyColorScheme] != "Default" {
		t.Error("catalog was mutated through a returned template")
	}

	list := Templates()
	list[0].Config[KeyColorScheme] = "Mutated"
	if fresh := Templates(); fresh[0].Config[KeyColorScheme] != "Default" {
		t.Error("catalog was mutated through Templates()")
	}
}

func TestRequiresTimeData(t *testing.T) {
	if !RequiresTimeData("Time-Series: Daily Flow") {
		t.Error("Daily Flow should require time data")
	}
	if RequiresTimeData("Default") || RequiresTimeData("missing") {
		t.Error("standard and unknown templates should not require time data")
	}
}

func TestColorSchemes(t *testing.T) {
	for _, tmpl := range Templates() {
		if !IsColorScheme(tmpl.Config[KeyColorScheme]) {
			t.Errorf("template %q uses unknown scheme %q", tmpl.Name, tmpl.Config[KeyColorScheme])
		}
	}
	schemes := ColorSchemes()
	schemes[0] = "changed"
	if ColorSchemes()[0] != "Default" {
		t.Error("ColorSchemes() exposed internal slice")
	}
}
