package shadow_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aretw0/shadow"
	"github.com/aretw0/shadow/pkg/core"
	"github.com/aretw0/shadow/pkg/mapping"
)

// Example_populate copies names and nested SKUs into hidden uppercase fields.
func Example_populate() {
	dir, err := os.MkdirTemp("", "shadow-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	svc, err := shadow.New(dir, shadow.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	err = svc.SaveDocument(ctx, "orders/1.json", "", core.Metadata{
		"customer": "Ada Lovelace",
		"lines": []any{
			map[string]any{"sku": "ab-1"},
			map[string]any{"sku": "cd-2"},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	m, err := mapping.Load(strings.NewReader(`
fields:
  customer: "@hidden.customer"
  lines.*.sku: "lines.*.@hidden.sku"
`))
	if err != nil {
		log.Fatal(err)
	}

	report, err := shadow.Populate(ctx, svc.Repository(), m)
	if err != nil {
		log.Fatal(err)
	}

	doc, err := svc.GetDocument(ctx, "orders/1.json")
	if err != nil {
		log.Fatal(err)
	}
	lines := doc.Metadata["lines"].([]any)

	fmt.Println("changed:", report.Changed)
	fmt.Println(doc.Metadata["@hidden"].(map[string]any)["customer"])
	fmt.Println(lines[1].(map[string]any)["@hidden"].(map[string]any)["sku"])
	// Output:
	// changed: 1
	// ADA LOVELACE
	// CD-2
}

func ExampleChangeReason() {
	m, err := mapping.New("upper", mapping.Field{Source: "name", Destination: "@hidden.name"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(shadow.ChangeReason(m))
	// Output:
	// chore(shadow): populate hidden fields
	//
	// Transform: upper
	// - name -> @hidden.name
	//
	// Powered-by: Shadow
}
