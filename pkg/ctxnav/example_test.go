package ctxnav_test

import (
	"context"
	"fmt"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/binder"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/config"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data/memdata"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/events"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

const manifest = `
[[routes]]
name = "list"
pattern = ":?query:"
targets = ["ProductList"]

[[routes]]
name = "detail"
pattern = "Products({key}):?query:"
targets = ["ProductDetail"]

[targets.ProductList]
view = "products.list"
entity_set = "Products"

[targets.ProductDetail]
view = "products.detail"
entity_set = "Products"

[entity_sets.Products]
keys = ["ProductID"]

[entity_sets.Products.properties]
ProductID = "Edm.String"
`

func Example() {
	cfg, err := config.Parse([]byte(manifest), "toml")
	if err != nil {
		panic(err)
	}

	model := memdata.New().AddEntitySet("Products", path.Key{Name: "ProductID", String: true})
	if _, err := model.Insert("Products", memdata.Record{"ProductID": "HT-1000", "Name": "Notebook"}); err != nil {
		panic(err)
	}

	detail := binder.NewPage("detail")
	nav, err := ctxnav.New(cfg, model,
		ctxnav.WithView("ProductList", binder.NewPage("list")),
		ctxnav.WithView("ProductDetail", detail),
	)
	if err != nil {
		panic(err)
	}
	defer nav.Close()

	nav.AttachOnAfterNavigation(func(ev events.NavigationEvent) {
		fmt.Printf("matched %s at %q\n", ev.Route, ev.Hash)
	})

	ctx := context.Background()
	if err := nav.InitializeRouting(ctx, nil); err != nil {
		panic(err)
	}

	list, err := model.List(ctx, "/Products", nil)
	if err != nil {
		panic(err)
	}
	row := list.Contexts()[0]
	if err := nav.NavigateToContext(ctx, ctxnav.Immediate{Context: row}, ctxnav.NavigationParameters{}); err != nil {
		panic(err)
	}

	name, _ := detail.BindingContext().Object("Name")
	fmt.Println("showing", name)

	// Output:
	// matched list at ""
	// matched detail at "Products('HT-1000')"
	// showing Notebook
}
