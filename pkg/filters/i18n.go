package filters

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const defaultFormat = "medium"

var dateLayouts = map[string]string{
	"short":  "1/2/06",
	"medium": "Jan 2, 2006",
	"long":   "January 2, 2006",
	"full":   "Monday, January 2, 2006",
}

var datetimeLayouts = map[string]string{
	"short":  "1/2/06, 3:04 PM",
	"medium": "Jan 2, 2006, 3:04:05 PM",
	"long":   "January 2, 2006 at 3:04:05 PM MST",
	"full":   "Monday, January 2, 2006 at 3:04:05 PM MST",
}

const rfc822Layout = "Mon, 02 Jan 2006 15:04:05 GMT"

func filterFormatDate(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return formatTime(FormatDate, dateLayouts, in, param)
}

func filterFormatDatetime(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return formatTime(FormatDatetime, datetimeLayouts, in, param)
}

func formatTime(name string, layouts map[string]string, in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	t, err := toTime(in)
	if err != nil {
		return nil, filterError(name, err)
	}
	format := defaultFormat
	if param != nil && !param.IsNil() && strings.TrimSpace(param.String()) != "" {
		format = strings.TrimSpace(param.String())
	}
	layout, ok := layouts[format]
	if !ok {
		return nil, filterError(name, fmt.Errorf("unknown format %q", format))
	}
	return pongo2.AsValue(t.Format(layout)), nil
}

func filterFormatRFC822Datetime(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	t, err := toTime(in)
	if err != nil {
		return nil, filterError(FormatRFC822Datetime, err)
	}
	return pongo2.AsValue(t.UTC().Format(rfc822Layout)), nil
}

func filterLocalizeDatetime(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return in, nil
	}
	t, err := toTime(in)
	if err != nil {
		return nil, filterError(LocalizeDatetime, err)
	}
	return pongo2.AsValue(t.UTC()), nil
}

func numberFilter(tag language.Tag) pongo2.FilterFunction {
	printer := message.NewPrinter(tag)
	return func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		if in.IsNil() {
			return pongo2.AsValue(""), nil
		}
		switch {
		case in.IsInteger():
			return pongo2.AsValue(printer.Sprint(number.Decimal(in.Integer()))), nil
		case in.IsFloat():
			return pongo2.AsValue(printer.Sprint(number.Decimal(in.Float()))), nil
		case in.IsString():
			f, err := strconv.ParseFloat(strings.TrimSpace(in.String()), 64)
			if err != nil {
				return nil, filterError(FormatNumber, err)
			}
			return pongo2.AsValue(printer.Sprint(number.Decimal(f))), nil
		}
		return nil, filterError(FormatNumber, fmt.Errorf("unsupported value %T", in.Interface()))
	}
}

func toTime(in *pongo2.Value) (time.Time, error) {
	switch v := in.Interface().(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *v, nil
	case string:
		raw := strings.TrimSpace(v)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as time", raw)
	}
	return time.Time{}, fmt.Errorf("unsupported value %T", in.Interface())
}
