package statusbar

import "testing"

func TestAddNamespacesID(t *testing.T) {
	r := NewRegistry()

	id, _ := r.Add("demo", "word-count", "0 words", "", nil)
	if id != "demo.word-count" {
		t.Errorf("id = %q, want %q", id, "demo.word-count")
	}

	item, ok := r.Get("demo.word-count")
	if !ok {
		t.Fatal("Get() did not find the item")
	}
	if item.PluginID != "demo" || item.Text != "0 words" {
		t.Errorf("item = %+v", item)
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()

	_, unreg := r.Add("demo", "clock", "12:00", "", nil)
	unreg()
	unreg()

	if _, ok := r.Get("demo.clock"); ok {
		t.Error("item still present after unregister")
	}
}

func TestSetText(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Add("demo", "clock", "12:00", "", nil)

	if !r.SetText(id, "12:01") {
		t.Fatal("SetText = false, want true")
	}
	item, _ := r.Get(id)
	if item.Text != "12:01" {
		t.Errorf("Text = %q, want %q", item.Text, "12:01")
	}

	if r.SetText("missing.item", "x") {
		t.Error("SetText = true for missing item")
	}
}

func TestRemovePlugin(t *testing.T) {
	r := NewRegistry()
	r.Add("demo", "one", "1", "", nil)
	r.Add("demo", "two", "2", "", nil)
	r.Add("other", "keep", "3", "", nil)

	r.RemovePlugin("demo")

	if got := len(r.ItemsForPlugin("demo")); got != 0 {
		t.Errorf("demo items = %d, want 0", got)
	}
	if got := len(r.Items()); got != 1 {
		t.Errorf("total items = %d, want 1", got)
	}
	if _, ok := r.Get("other.keep"); !ok {
		t.Error("other plugin's item was removed")
	}
}

func TestItemsSorted(t *testing.T) {
	r := NewRegistry()
	r.Add("b", "z", "", "", nil)
	r.Add("a", "y", "", "", nil)

	items := r.Items()
	if len(items) != 2 || items[0].ID != "a.y" || items[1].ID != "b.z" {
		t.Errorf("Items() order = %v", items)
	}
}
