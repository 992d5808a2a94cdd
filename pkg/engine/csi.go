package engine

import (
	"bytes"
	"html"

	"github.com/flosch/pongo2/v6"
)

const csiTag = "csi"

// csiNode renders a placeholder element the browser replaces with the
// response of a follow-up request to src. The body is the fallback content.
type csiNode struct {
	src  pongo2.IEvaluator
	body *pongo2.NodeWrapper
}

func (n *csiNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	src, err := n.src.Evaluate(ctx)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := n.body.Execute(ctx, &body); err != nil {
		return err
	}

	writer.WriteString(`<div data-html-include="`)
	writer.WriteString(html.EscapeString(src.String()))
	writer.WriteString(`">`)
	writer.WriteString(body.String())
	writer.WriteString(`</div>`)
	return nil
}

// parseCSI handles {% csi expr %}...{% endcsi %}.
func parseCSI(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	if arguments.Remaining() == 0 {
		return nil, arguments.Error("csi requires a url expression.", start)
	}
	src, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("Malformed csi-tag arguments.", nil)
	}

	body, endArgs, err := doc.WrapUntilTag("endcsi")
	if err != nil {
		return nil, err
	}
	if endArgs.Remaining() > 0 {
		return nil, endArgs.Error("endcsi takes no arguments.", nil)
	}

	return &csiNode{src: src, body: body}, nil
}
