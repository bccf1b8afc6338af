package statusrow

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/statusboard/statusboard/internal/network"
)

// Glyph is the status indicator shown on a row.
type Glyph string

const (
	GlyphNone      Glyph = "none"
	GlyphSpinner   Glyph = "spinner"
	GlyphCheckmark Glyph = "checkmark"
	GlyphWarning   Glyph = "warning"
)

// View is what a row renders.
type View struct {
	ServiceID string
	Name      string
	URL       string
	Icon      []byte
	IconRef   string

	Glyph Glyph

	// Message is empty unless error codes are shown.
	Message string

	Loading      bool
	StatusCode   int
	ResponseTime *time.Duration
}

// Render maps the row's state to a view.
func (r *Row) Render(ctx context.Context) View {
	showMessages := r.settings.ShowErrorCodes(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	view := View{
		ServiceID:    r.service.ID,
		Name:         r.service.Name,
		URL:          r.service.URL,
		Icon:         r.service.Icon,
		IconRef:      r.service.IconRef,
		Glyph:        GlyphNone,
		Loading:      r.state.Loading,
		ResponseTime: r.state.LastResponseTime,
	}

	if res, ok := r.state.Result.(Success); ok {
		view.StatusCode = res.StatusCode
	}

	var message string
	switch res := r.state.Result.(type) {
	case nil:
	case Success:
		if res.StatusCode == http.StatusOK {
			view.Glyph = GlyphCheckmark
			message = FormatResponseTime(r.state.LastResponseTime)
		} else {
			view.Glyph = GlyphWarning
			message = strconv.Itoa(res.StatusCode)
		}
	case Failure:
		view.Glyph = GlyphWarning
		message = network.Describe(res.Err)
	}

	if r.state.Loading {
		view.Glyph = GlyphSpinner
		message = ""
	}
	if showMessages {
		view.Message = message
	}

	return view
}

// FormatResponseTime formats a response time as whole milliseconds, e.g. "123 ms".
func FormatResponseTime(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%d ms", d.Milliseconds())
}
