package report

import (
	_ "embed"
	"html/template"
	"io"

	"github.com/pkg/errors"
)

//go:embed template.html
var page string

var tpl = template.Must(template.New("report").Parse(page))

// Render writes the HTML report of ctx.
func Render(wrt io.Writer, ctx *Context) error {
	err := tpl.Execute(wrt, ctx)
	if err != nil {
		return errors.Wrap(err, "unable to render report")
	}

	return nil
}

// Write builds the report context of in and renders it.
func Write(wrt io.Writer, in Input) error {
	ctx, err := Build(in)
	if err != nil {
		return errors.Wrap(err, "unable to build report")
	}

	return Render(wrt, ctx)
}
