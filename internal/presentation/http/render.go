package http

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"
)

// renderBufferSize fits a full search results page without regrowing.
const renderBufferSize = 16 << 10

// renderComponent renders a page into memory so a failed render never leaves a half-written body.
func renderComponent(ctx context.Context, component templ.Component) ([]byte, error) {
	if component == nil {
		return nil, eris.New("no component to render")
	}

	buf := bytes.NewBuffer(make([]byte, 0, renderBufferSize))
	if err := component.Render(ctx, buf); err != nil {
		return nil, eris.Wrap(err, "rendering page component")
	}
	return buf.Bytes(), nil
}
