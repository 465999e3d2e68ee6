package binder

import (
	"context"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
)

// CollectSideEffects returns the paths observed by the bindings below
// binding: navigation paths of list bindings and of context bindings without
// dependents, property paths of property bindings. Property paths follow
// navigation paths; extra property paths come last. Duplicates are dropped.
func CollectSideEffects(binding data.Binding, extraPropertyPaths ...string) []data.SideEffect {
	var (
		navigation, properties []string
		seenNav                = map[string]bool{}
		seenProp               = map[string]bool{}
	)
	addNav := func(p string) {
		if !seenNav[p] {
			seenNav[p] = true
			navigation = append(navigation, p)
		}
	}
	addProp := func(p string) {
		if p != "" && !seenProp[p] {
			seenProp[p] = true
			properties = append(properties, p)
		}
	}

	var walk func(b data.Binding)
	walk = func(b data.Binding) {
		switch b.Kind() {
		case constants.BindingContext:
			deps := b.Dependents()
			if deps == nil {
				addNav(b.Path())
				return
			}
			for _, d := range deps {
				walk(d)
			}
		case constants.BindingList:
			addNav(b.Path())
		case constants.BindingProperty:
			addProp(b.Path())
		}
	}
	if binding != nil {
		walk(binding)
	}
	for _, p := range extraPropertyPaths {
		addProp(p)
	}

	effects := make([]data.SideEffect, 0, len(navigation)+len(properties))
	for _, p := range navigation {
		effects = append(effects, data.SideEffect{NavigationPropertyPath: p})
	}
	for _, p := range properties {
		effects = append(effects, data.SideEffect{PropertyPath: p})
	}
	return effects
}

// RequestSideEffectsRefresh re-reads exactly the paths observed below the
// binding of c, plus the extra property paths (typically the messages path).
func (b *Binder) RequestSideEffectsRefresh(ctx context.Context, c data.Context, extraPropertyPaths ...string) error {
	effects := CollectSideEffects(c.Binding(), extraPropertyPaths...)
	return c.RequestSideEffects(ctx, effects)
}
