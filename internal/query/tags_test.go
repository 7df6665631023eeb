package query

import (
	"reflect"
	"testing"
)

func TestPassesTagFilterNoFilterAlwaysPasses(t *testing.T) {
	if !passesTagFilter(nil, Filters{}) {
		t.Error("expected empty filter to pass")
	}
}

func TestPassesTagFilterTagsAllRequiresEvery(t *testing.T) {
	f := Filters{TagsAll: []string{"auth", "hot"}}
	if passesTagFilter([]string{"auth"}, f) {
		t.Error("expected missing tag to fail tags_all")
	}
	if !passesTagFilter([]string{"auth", "hot", "extra"}, f) {
		t.Error("expected all tags present to pass")
	}
}

func TestPassesTagFilterTagsAnyRequiresOne(t *testing.T) {
	f := Filters{TagsAny: []string{"auth", "billing"}}
	if passesTagFilter([]string{"unrelated"}, f) {
		t.Error("expected no matching tag to fail tags_any")
	}
	if !passesTagFilter([]string{"billing"}, f) {
		t.Error("expected one matching tag to pass tags_any")
	}
}

func TestMatchedFilterTagsOnlyReturnsWanted(t *testing.T) {
	f := Filters{TagsAny: []string{"auth"}}
	got := matchedFilterTags([]string{"auth", "unrelated"}, f)
	want := []string{"auth"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("matchedFilterTags() = %v, want %v", got, want)
	}
}

func TestTagBoostForCapsAtOne(t *testing.T) {
	boost := tagBoostFor([]string{"a", "b", "c", "d", "e"})
	if boost != 1.0 {
		t.Errorf("tagBoostFor() = %v, want 1.0", boost)
	}
}

func TestTagBoostForEmpty(t *testing.T) {
	if tagBoostFor(nil) != 0 {
		t.Error("expected zero boost for no matched tags")
	}
}
