package ctxnav

// NavigationParameters tune a single navigation.
type NavigationParameters struct {
	// NoHistoryEntry replaces the current history entry instead of adding one.
	NoHistoryEntry bool
	// NoHashChange rebinds the displayed page without changing the hash. In
	// a multi-column layout it does so only if the hash would stay the same
	// and navigates otherwise.
	NoHashChange bool
	// UseCanonicalPath addresses the record by its entity set instead of the
	// path it was reached by.
	UseCanonicalPath bool
	// Editable opens the target page in edit mode.
	Editable              bool
	PersistScrollPosition bool
	// UpdateLayoutLevel is -1 to go one column back, +1 to open a column and 0
	// to replace the content of the current column.
	UpdateLayoutLevel int
	// UseHash keeps the current hash when semantic keys cannot be built.
	UseHash bool
	// LayoutOverride is the layout to show instead of the computed one.
	LayoutOverride string
	// Transient flags a record that is being created. Combined with Editable
	// the hash gets the create action flag.
	Transient bool
	// TargetPath names an entry of the manifest's navigation table to
	// navigate through instead of the record's own path.
	TargetPath string
	// ViewLevel is the level of the page the navigation starts from: 0 for
	// the list, 1 for the object page. It decides semantic-key addressing.
	ViewLevel int
}

func (p NavigationParameters) validate() error {
	if p.UpdateLayoutLevel < -1 || p.UpdateLayoutLevel > 1 {
		return newValidationError("UpdateLayoutLevel", "must be -1, 0 or 1")
	}
	if p.ViewLevel < 0 {
		return newValidationError("ViewLevel", "must not be negative")
	}
	return nil
}

// ErrorPageParameters describe the error page shown by NavigateToErrorPage.
type ErrorPageParameters struct {
	// Container shows the page. Without one the Navigator's container is used.
	Container        Container
	Title            string
	Description      string
	TechnicalMessage string
	TechnicalDetails string
}

// TransientStateParameters configure NavigateBackFromTransientState.
type TransientStateParameters struct {
	// UnlockTarget is released if it is still busy-locked.
	UnlockTarget any
}
