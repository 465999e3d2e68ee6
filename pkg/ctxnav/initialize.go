package ctxnav

import (
	"context"
	"errors"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/binder"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

var errNoEntitySet = errors.New("no entity set to route on")

// InitializeRouting starts a new routing session: it resets the session,
// loads the keys and draft annotation of the routing entity set, seeds the
// hash from the startup parameters of a deep link and starts the router.
//
// A MetadataError is returned when metadata cannot be loaded. The caller must
// not render pages in that case.
func (n *Navigator) InitializeRouting(ctx context.Context, startup path.StartupParameters) error {
	return n.serialize("initialize", func() error {
		return n.initializeRouting(ctx, startup)
	})
}

func (n *Navigator) initializeRouting(ctx context.Context, startup path.StartupParameters) error {
	logger := internal.GetInternalLogger()

	n.session.reset(n.manifest.App.ExitOnNavigateBackToRoot)
	n.tracker.Reset()

	entitySet := n.manifest.EntitySet()
	if entitySet == "" {
		return &MetadataError{Err: errNoEntitySet}
	}
	entityType, err := n.meta.RequestEntityType(ctx, entitySet)
	if err != nil {
		logger.Error("Could not load the entity type", "entitySet", entitySet, "error", err)
		return &MetadataError{EntitySet: entitySet, Err: err}
	}
	annotations, err := n.meta.RequestAnnotations(ctx, entitySet)
	if err != nil {
		logger.Error("Could not load the annotations", "entitySet", entitySet, "error", err)
		return &MetadataError{EntitySet: entitySet, Err: err}
	}

	n.session.setKeys(entitySet,
		entityType.PathKeys(entityType.Keys),
		entityType.PathKeys(annotations.SemanticKeys),
		annotations.Draft,
	)
	n.session.setMessagesPath(entitySet, annotations.MessagesPath)
	for name, t := range n.manifest.Targets {
		if t.EntitySet == "" || t.EntitySet == entitySet {
			continue
		}
		a, err := n.meta.RequestAnnotations(ctx, t.EntitySet)
		if err != nil {
			logger.Debug("No annotations for target", "target", name, "entitySet", t.EntitySet, "error", err)
			continue
		}
		n.session.setMessagesPath(t.EntitySet, a.MessagesPath)
	}

	n.binder.SetAddressing(binder.Addressing{
		SemanticKeys: annotations.SemanticKeys,
		Draft:        annotations.Draft,
		MessagesPath: n.session.messagesPath,
		MultiColumn:  n.tracker.Enabled(),
	})

	n.seedHash(entitySet, startup)
	n.router.Initialize()
	return nil
}

// seedHash sets the hash of a deep link before the router starts. An
// explicit hash always wins over startup parameters.
func (n *Navigator) seedHash(entitySet string, startup path.StartupParameters) {
	hc := n.router.HashChanger()
	if hc.GetHash() != "" || len(startup) == 0 {
		return
	}

	if startup.First(constants.PreferredModeParam) == constants.PreferredModeCreate {
		hash := entitySet + constants.PendingCreationMarker
		hc.ReplaceHash(hash, nil)
		n.session.setExitOnRoot()
		internal.GetInternalLogger().Debug("Startup in create mode", "hash", hash)
		return
	}

	var (
		hash string
		ok   bool
	)
	semantic := n.session.SemanticKeys()
	if len(semantic) > 0 && startup.First(semantic[0].Name) != "" && !n.tracker.Enabled() {
		hash, ok = path.BuildPath(semantic, entitySet, startup)
	}
	if !ok {
		hash, ok = path.BuildPath(n.session.TechnicalKeys(), entitySet, startup)
	}
	if ok {
		hc.ReplaceHash(hash, nil)
		internal.GetInternalLogger().Debug("Startup hash from parameters", "hash", hash)
	}
}
