package engine

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/flosch/pongo2/v6"
)

const (
	transTag      = "trans"
	translatorKey = "i18n_translator"
)

// Translator looks up message translations for the i18n extension.
type Translator interface {
	Gettext(msgid string) string
	Ngettext(singular, plural string, n int) string
}

// NullTranslator returns every message untranslated.
type NullTranslator struct{}

func (NullTranslator) Gettext(msgid string) string { return msgid }

func (NullTranslator) Ngettext(singular, plural string, n int) string {
	if n == 1 {
		return singular
	}
	return plural
}

// CatalogTranslator serves translations from an in-memory catalog. Plural
// entries are keyed by the singular message and hold [singular, plural].
type CatalogTranslator struct {
	Messages map[string]string
	Plurals  map[string][2]string
	// OnMissing, when set, is called for every msgid without a translation.
	OnMissing func(msgid string)
}

func (c CatalogTranslator) Gettext(msgid string) string {
	if out, ok := c.Messages[msgid]; ok {
		return out
	}
	if c.OnMissing != nil {
		c.OnMissing(msgid)
	}
	return msgid
}

func (c CatalogTranslator) Ngettext(singular, plural string, n int) string {
	forms, ok := c.Plurals[singular]
	if !ok {
		if c.OnMissing != nil {
			c.OnMissing(singular)
		}
		return NullTranslator{}.Ngettext(singular, plural, n)
	}
	if n == 1 {
		return forms[0]
	}
	return forms[1]
}

func i18nGlobals(cfg *config) pongo2.Context {
	t := cfg.translator
	return pongo2.Context{
		translatorKey: t,
		"_":           t.Gettext,
		"gettext":     t.Gettext,
		"ngettext":    t.Ngettext,
	}
}

func translatorFrom(ctx *pongo2.ExecutionContext) Translator {
	if t, ok := ctx.Public[translatorKey].(Translator); ok {
		return t
	}
	return NullTranslator{}
}

type transParam struct {
	name string
	expr pongo2.IEvaluator
}

type transNode struct {
	params    []transParam
	countName string
	trimmed   bool
	singular  *pongo2.NodeWrapper
	plural    *pongo2.NodeWrapper
	token     *pongo2.Token
}

var transSpace = regexp.MustCompile(`\s*\n\s*`)

func (n *transNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	child := pongo2.NewChildExecutionContext(ctx)
	for _, param := range n.params {
		value, err := n.resolve(ctx, param)
		if err != nil {
			return err
		}
		child.Private[param.name] = value.Interface()
	}

	singular, err := n.renderBody(child, n.singular)
	if err != nil {
		return err
	}
	t := translatorFrom(ctx)

	if n.plural == nil {
		writer.WriteString(t.Gettext(singular))
		return nil
	}

	plural, err := n.renderBody(child, n.plural)
	if err != nil {
		return err
	}
	count, ok := child.Private[n.countName]
	if !ok {
		count = ctx.Public[n.countName]
	}
	writer.WriteString(t.Ngettext(singular, plural, pongo2.AsValue(count).Integer()))
	return nil
}

func (n *transNode) resolve(ctx *pongo2.ExecutionContext, param transParam) (*pongo2.Value, *pongo2.Error) {
	if param.expr != nil {
		return param.expr.Evaluate(ctx)
	}
	if v, ok := ctx.Private[param.name]; ok {
		return pongo2.AsValue(v), nil
	}
	if v, ok := ctx.Public[param.name]; ok {
		return pongo2.AsValue(v), nil
	}
	return pongo2.AsValue(nil), nil
}

func (n *transNode) renderBody(ctx *pongo2.ExecutionContext, body *pongo2.NodeWrapper) (string, *pongo2.Error) {
	var buf bytes.Buffer
	if err := body.Execute(ctx, &buf); err != nil {
		return "", err
	}
	out := buf.String()
	if n.trimmed {
		out = strings.TrimSpace(transSpace.ReplaceAllString(out, " "))
	}
	return out, nil
}

// parseTrans handles
//
//	{% trans [name[=expr]][, ...] [trimmed|notrimmed] %}...{% pluralize [name] %}...{% endtrans %}
func parseTrans(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	node := &transNode{token: start}
	seen := map[string]bool{}

	for arguments.Remaining() > 0 {
		if len(node.params) > 0 || seen["trimmed"] || seen["notrimmed"] {
			arguments.Match(pongo2.TokenSymbol, ",")
		}
		ident := arguments.MatchType(pongo2.TokenIdentifier)
		if ident == nil {
			return nil, arguments.Error("trans expects variable names or assignments.", nil)
		}
		if (ident.Val == "trimmed" || ident.Val == "notrimmed") && arguments.Peek(pongo2.TokenSymbol, "=") == nil {
			if seen["trimmed"] || seen["notrimmed"] {
				return nil, arguments.Error("trimmed or notrimmed given twice.", ident)
			}
			seen[ident.Val] = true
			node.trimmed = ident.Val == "trimmed"
			continue
		}
		if seen["param:"+ident.Val] {
			return nil, arguments.Error(fmt.Sprintf("translatable variable %q defined twice.", ident.Val), ident)
		}
		seen["param:"+ident.Val] = true

		param := transParam{name: ident.Val}
		if arguments.Match(pongo2.TokenSymbol, "=") != nil {
			expr, err := arguments.ParseExpression()
			if err != nil {
				return nil, err
			}
			param.expr = expr
		}
		node.params = append(node.params, param)
	}

	body, endArgs, err := doc.WrapUntilTag("pluralize", "endtrans")
	if err != nil {
		return nil, err
	}
	node.singular = body

	if body.Endtag == "pluralize" {
		if ident := endArgs.MatchType(pongo2.TokenIdentifier); ident != nil {
			node.countName = ident.Val
		}
		if endArgs.Remaining() > 0 {
			return nil, endArgs.Error("pluralize takes at most one variable name.", nil)
		}
		if node.countName == "" {
			if len(node.params) == 0 {
				return nil, doc.Error("pluralize without variables.", start)
			}
			node.countName = node.params[0].name
			for _, param := range node.params {
				if param.name == "count" {
					node.countName = "count"
				}
			}
		}

		plural, endArgs, err := doc.WrapUntilTag("endtrans")
		if err != nil {
			return nil, err
		}
		if endArgs.Remaining() > 0 {
			return nil, endArgs.Error("endtrans takes no arguments.", nil)
		}
		node.plural = plural
	} else if endArgs.Remaining() > 0 {
		return nil, endArgs.Error("endtrans takes no arguments.", nil)
	}

	return node, nil
}
