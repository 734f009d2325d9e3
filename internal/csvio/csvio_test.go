package csvio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/aokihara/listing-engine/internal/domain"
)

func TestReadItems(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("id,price,stock\n4549957721409,11800,5\n4901234567894,980,0\n")

	items, err := ReadItems(in)
	if err != nil {
		t.Fatalf("ReadItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Identifier != "4549957721409" || items[0].Price != 11800 || items[0].Stock != 5 {
		t.Fatalf("items[0] = %+v", items[0])
	}
	if items[1].Identifier != "4901234567894" || items[1].Price != 980 || items[1].Stock != 0 {
		t.Fatalf("items[1] = %+v", items[1])
	}
}

func TestReadItemsReportsRowLine(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("id,price,stock\n4549957721409,11800,5\nbad-item,-1,2\n")

	_, err := ReadItems(in)
	if err == nil {
		t.Fatal("ReadItems() error = nil, want validation error")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("errors.Is(err, ErrValidation) = false, err = %v", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error %q does not name line 3", err.Error())
	}
}

func TestReadItemsRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	for name, doc := range map[string]string{
		"header only": "id,price,stock\n",
		"blank":       "",
	} {
		_, err := ReadItems(strings.NewReader(doc))
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: errors.Is(err, ErrValidation) = false, err = %v", name, err)
		}
	}
}

func TestWriteResults(t *testing.T) {
	t.Parallel()

	outcomes := []domain.Outcome{
		{Identifier: "4549957721409", Kind: domain.OutcomeSuccess, Price: 11800, Stock: 5},
		{Identifier: "4901234567894", Kind: domain.OutcomeBrandRestricted, Price: 980, Stock: 0, Message: "brand gate: Sony"},
	}

	var buf bytes.Buffer
	if err := WriteResults(&buf, outcomes); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3: %q", len(lines), buf.String())
	}
	if lines[0] != "id,outcome,price,stock,message" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "4549957721409,Success,11800,5," {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "BrandRestricted") || !strings.Contains(lines[2], "brand gate: Sony") {
		t.Fatalf("row 2 = %q", lines[2])
	}
}

func TestWriteResultsEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteResults(&buf, nil); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "id,outcome,price,stock,message" {
		t.Fatalf("empty export = %q, want header only", got)
	}
}
