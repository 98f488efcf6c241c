package assign

import (
	"bytes"
	"sort"
	"strconv"
	"text/template"

	"testfw-go/errcode"
	"testfw-go/stm32f4"

	"golang.org/x/tools/imports"
)

const stm32f4Path = "testfw-go/stm32f4"

var fileTmpl = template.Must(template.New("res").Parse(`// Code generated by assignres from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{printf "%q" .}}
{{- end}}
)
{{range .Local}}
type {{.Type}} struct {
{{- range .Fields}}
	{{.GoName}} stm32f4.{{.Kind}}
{{- end}}
}
{{end}}
// AssignedResources is every resource group of this build.
type AssignedResources struct {
{{- range .Groups}}
	{{.GoName}} {{.TypeName}}
{{- end}}
}

// splitResources moves each token out of p into its group, leaving the
// zero token in p.
func splitResources(p *stm32f4.Peripherals) AssignedResources {
	return AssignedResources{
{{- range .Groups}}
		{{.GoName}}: {{.TypeName}}{
{{- range .Fields}}
			{{.GoName}}: stm32f4.Move(&p.{{.Res}}),
{{- end}}
		},
{{- end}}
	}
}

// claims does not compile if an identifier is assigned twice.
var claims = stm32f4.Claims{
{{- range .Claims}}
	stm32f4.{{.Res}}: {{printf "%q" .Name}},
{{- end}}
}

var claimGroups = []string{ {{- range $i, $g := .Groups}}{{if $i}}, {{end}}{{printf "%q" $g.Name}}{{end -}} }
`))

type localField struct {
	Field
	Kind string
}

type localType struct {
	Type   string
	Fields []localField
}

// Generate renders d as a formatted Go file. source is recorded in the
// header. d must have passed Validate.
func Generate(d *Decl, source string) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	paths := map[string]bool{stm32f4Path: true}
	var local []localType
	for _, g := range d.Groups {
		if g.External() {
			paths[g.ImportPath()] = true
			continue
		}
		lt := localType{Type: g.Type}
		for _, f := range g.Fields {
			kind := "Pin"
			if f.id.Kind() == stm32f4.KindUSART {
				kind = "USART"
			}
			lt.Fields = append(lt.Fields, localField{Field: f, Kind: kind})
		}
		local = append(local, lt)
	}
	imps := make([]string, 0, len(paths))
	for p := range paths {
		imps = append(imps, p)
	}
	sort.Strings(imps)

	var buf bytes.Buffer
	err := fileTmpl.Execute(&buf, struct {
		Source  string
		Package string
		Imports []string
		Local   []localType
		Groups  []Group
		Claims  []Field
	}{source, d.Package, imps, local, d.Groups, d.Claims()})
	if err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "assign.generate", Msg: err.Error(), Err: err}
	}
	out, err := imports.Process(source+".go", buf.Bytes(), &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true})
	if err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "assign.generate", Msg: "format: " + err.Error(), Err: err}
	}
	return out, nil
}

func itoa(n int) string { return strconv.Itoa(n) }
