package window

import "errors"

// ErrDraftLeak is surfaced when a batch transmuter or shatter policy
// produces an entry that reports itself draft via scrivener.Draftable. A
// windowing daemon's output path must never append a draft entry - drafts
// enter a window, they do not leave one.
var ErrDraftLeak = errors.New("window: batch or shatter output must not be draft")
