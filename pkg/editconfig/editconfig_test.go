package editconfig

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func parseElement(t *testing.T, xmlStr string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlStr); err != nil {
		t.Fatalf("failed to parse %q: %v", xmlStr, err)
	}
	return doc.Root()
}

func serialize(t *testing.T, el *etree.Element) string {
	t.Helper()
	doc := etree.NewDocument()
	doc.AddChild(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}
	return s
}

func TestApplyMergeDefault(t *testing.T) {
	working := parseElement(t, `<config><a>1</a></config>`)
	edit := parseElement(t, `<config><b>2</b></config>`)

	result, err := Apply(working, edit, DefaultOpMerge, ErrorStop)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := serialize(t, result)
	if !strings.Contains(out, "<a>1</a>") || !strings.Contains(out, "<b>2</b>") {
		t.Fatalf("expected both a and b present, got %q", out)
	}
}

func TestApplyMergeLeafReplacesText(t *testing.T) {
	working := parseElement(t, `<config><a>1</a></config>`)
	edit := parseElement(t, `<config><a>2</a></config>`)

	result, err := Apply(working, edit, DefaultOpMerge, ErrorStop)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := serialize(t, result)
	if strings.Contains(out, "<a>1</a>") || !strings.Contains(out, "<a>2</a>") {
		t.Fatalf("expected a's text replaced with 2, got %q", out)
	}
}

func TestApplyDefaultReplace(t *testing.T) {
	working := parseElement(t, `<config><a>1</a><b>2</b></config>`)
	edit := parseElement(t, `<config><a>9</a></config>`)

	result, err := Apply(working, edit, DefaultOpReplace, ErrorStop)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := serialize(t, result)
	if !strings.Contains(out, "<a>9</a>") {
		t.Fatalf("expected a replaced, got %q", out)
	}
	if !strings.Contains(out, "<b>2</b>") {
		t.Fatalf("replace only replaces matched elements, b should survive: %q", out)
	}
}

func TestApplyOperationDelete(t *testing.T) {
	working := parseElement(t, `<config><a>1</a></config>`)
	edit := parseElement(t, `<config><a nc:operation="delete"/></config>`)

	result, err := Apply(working, edit, DefaultOpMerge, ErrorStop)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := serialize(t, result)
	if strings.Contains(out, "<a>") {
		t.Fatalf("expected a deleted, got %q", out)
	}
}

func TestApplyOperationDeleteMissingFailsStopOnError(t *testing.T) {
	working := parseElement(t, `<config></config>`)
	edit := parseElement(t, `<config><a nc:operation="delete"/></config>`)

	_, err := Apply(working, edit, DefaultOpMerge, ErrorStop)
	if err == nil {
		t.Fatalf("expected an error deleting a node that does not exist")
	}
}

func TestApplyOperationCreateExistingFails(t *testing.T) {
	working := parseElement(t, `<config><a>1</a></config>`)
	edit := parseElement(t, `<config><a nc:operation="create">2</a></config>`)

	_, err := Apply(working, edit, DefaultOpMerge, ErrorStop)
	if err == nil {
		t.Fatalf("expected an error creating a node that already exists")
	}
}

func TestApplyListEntryMatchedByKey(t *testing.T) {
	working := parseElement(t, `<config><if name="eth0"><mtu>1500</mtu></if><if name="eth1"><mtu>1500</mtu></if></config>`)
	edit := parseElement(t, `<config><if name="eth1"><mtu>9000</mtu></if></config>`)

	result, err := Apply(working, edit, DefaultOpMerge, ErrorStop)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out := serialize(t, result)
	if !strings.Contains(out, `name="eth0"`) {
		t.Fatalf("expected eth0 entry preserved, got %q", out)
	}
	if !strings.Contains(out, "9000") {
		t.Fatalf("expected eth1's mtu updated to 9000, got %q", out)
	}
}
