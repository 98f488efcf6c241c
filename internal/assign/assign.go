// Package assign turns a per-build resource declaration into Go source that
// splits the root peripheral object into named, disjoint groups.
//
// Declaration format (order is preserved in the output):
//
//	package: main
//	groups:
//	  uart:
//	    type: testfw-go/bringup.UartResources
//	    fields:
//	      peri: USART2
//	      tx: PA2
//	      rx: PA3
//
// A type without a slash or dot is declared by the generated file; a
// qualified type is referenced and must already have the listed fields.
package assign

import (
	"go/token"
	"strings"

	"testfw-go/errcode"
	"testfw-go/stm32f4"

	"gopkg.in/yaml.v3"
)

// Field is one resource inside a group.
type Field struct {
	Name string // declaration key, e.g. "tx"
	Res  string // identifier name, e.g. "PA2"
	Line int

	id stm32f4.ID
}

// GoName is the exported struct field name.
func (f Field) GoName() string { return exported(f.Name) }

// ID is the resolved identifier; valid after Validate.
func (f Field) ID() stm32f4.ID { return f.id }

type Group struct {
	Name   string
	Type   string
	Fields []Field
	Line   int
}

func (g Group) GoName() string { return exported(g.Name) }

// External reports whether Type names a type from another package.
func (g Group) External() bool { return strings.ContainsAny(g.Type, "./") }

// ImportPath and TypeName split a qualified type such as
// "testfw-go/bringup.UartResources".
func (g Group) ImportPath() string {
	if i := strings.LastIndexByte(g.Type, '.'); i > 0 {
		return g.Type[:i]
	}
	return ""
}

func (g Group) TypeName() string {
	if !g.External() {
		return g.Type
	}
	path := g.ImportPath()
	return path[strings.LastIndexByte(path, '/')+1:] + g.Type[len(path):]
}

// Decl is a parsed resources.yaml.
type Decl struct {
	Package string
	Groups  []Group
}

func parseErr(line int, msg string) error {
	return errcode.New(errcode.InvalidParams, "assign.parse", "line "+itoa(line)+": "+msg)
}

// Parse reads a declaration, keeping group and field order.
func Parse(src []byte) (*Decl, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "assign.parse", Msg: err.Error(), Err: err}
	}
	if len(doc.Content) == 0 {
		return nil, errcode.New(errcode.InvalidParams, "assign.parse", "empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, parseErr(root.Line, "top level must be a mapping")
	}
	d := &Decl{Package: "main"}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		switch k.Value {
		case "package":
			d.Package = v.Value
		case "groups":
			if v.Kind != yaml.MappingNode {
				return nil, parseErr(v.Line, "groups must be a mapping")
			}
			for j := 0; j+1 < len(v.Content); j += 2 {
				g, err := parseGroup(v.Content[j], v.Content[j+1])
				if err != nil {
					return nil, err
				}
				d.Groups = append(d.Groups, g)
			}
		default:
			return nil, parseErr(k.Line, "unknown key "+k.Value)
		}
	}
	return d, nil
}

func parseGroup(k, v *yaml.Node) (Group, error) {
	g := Group{Name: k.Value, Line: k.Line}
	if v.Kind != yaml.MappingNode {
		return g, parseErr(v.Line, "group "+g.Name+" must be a mapping")
	}
	for i := 0; i+1 < len(v.Content); i += 2 {
		gk, gv := v.Content[i], v.Content[i+1]
		switch gk.Value {
		case "type":
			g.Type = gv.Value
		case "fields":
			if gv.Kind != yaml.MappingNode {
				return g, parseErr(gv.Line, "fields of "+g.Name+" must be a mapping")
			}
			for j := 0; j+1 < len(gv.Content); j += 2 {
				fk, fv := gv.Content[j], gv.Content[j+1]
				if fv.Kind != yaml.ScalarNode {
					return g, parseErr(fv.Line, g.Name+"."+fk.Value+" must name one identifier")
				}
				g.Fields = append(g.Fields, Field{Name: fk.Value, Res: fv.Value, Line: fk.Line})
			}
		default:
			return g, parseErr(gk.Line, "unknown group key "+gk.Value)
		}
	}
	return g, nil
}

// Validate resolves every identifier and rejects anything that would not
// yield one disjoint partition.
func (d *Decl) Validate() error {
	const op = "assign.validate"
	if !token.IsIdentifier(d.Package) {
		return errcode.New(errcode.InvalidParams, op, "bad package name "+quote(d.Package))
	}
	if len(d.Groups) == 0 {
		return errcode.New(errcode.InvalidParams, op, "no groups declared")
	}
	owner := make(map[stm32f4.ID]string)
	seenGroup := make(map[string]bool)
	seenType := make(map[string]string)
	for gi := range d.Groups {
		g := &d.Groups[gi]
		if !token.IsIdentifier(g.Name) || g.Name == "_" {
			return errcode.New(errcode.InvalidParams, op, "bad group name "+quote(g.Name))
		}
		if seenGroup[g.GoName()] {
			return errcode.New(errcode.InvalidParams, op, "group "+g.Name+" declared twice")
		}
		seenGroup[g.GoName()] = true
		if err := checkType(g); err != nil {
			return err
		}
		if !g.External() {
			if prev, dup := seenType[g.Type]; dup {
				return errcode.New(errcode.InvalidParams, op, "type "+g.Type+" declared by "+prev+" and "+g.Name)
			}
			seenType[g.Type] = g.Name
		}
		if len(g.Fields) == 0 {
			return errcode.New(errcode.InvalidParams, op, "group "+g.Name+" is empty")
		}
		seenField := make(map[string]bool)
		for fi := range g.Fields {
			f := &g.Fields[fi]
			if !token.IsIdentifier(f.Name) || f.Name == "_" {
				return errcode.New(errcode.InvalidParams, op, "bad field name "+quote(f.Name)+" in "+g.Name)
			}
			if seenField[f.GoName()] {
				return errcode.New(errcode.InvalidParams, op, "field "+f.Name+" repeated in "+g.Name)
			}
			seenField[f.GoName()] = true
			id, ok := stm32f4.Lookup(f.Res)
			if !ok {
				return errcode.New(errcode.UnknownPin, op, g.Name+"."+f.Name+": unknown identifier "+quote(f.Res))
			}
			if prev, taken := owner[id]; taken {
				return errcode.New(errcode.PinInUse, op, id.String()+" claimed by both "+prev+" and "+g.Name+"."+f.Name)
			}
			owner[id] = g.Name + "." + f.Name
			f.id = id
		}
	}
	return nil
}

func checkType(g *Group) error {
	const op = "assign.validate"
	if g.Type == "" {
		return errcode.New(errcode.InvalidParams, op, "group "+g.Name+" has no type")
	}
	if !g.External() {
		if !token.IsIdentifier(g.Type) || !token.IsExported(g.Type) {
			return errcode.New(errcode.InvalidParams, op, "bad type name "+quote(g.Type))
		}
		if g.Type == "AssignedResources" {
			return errcode.New(errcode.InvalidParams, op, "type name AssignedResources is reserved")
		}
		return nil
	}
	path := g.ImportPath()
	name := g.Type[len(path)+1:]
	pkg := path[strings.LastIndexByte(path, '/')+1:]
	if path == "" || !token.IsIdentifier(pkg) || !token.IsIdentifier(name) || !token.IsExported(name) {
		return errcode.New(errcode.InvalidParams, op, "bad qualified type "+quote(g.Type))
	}
	return nil
}

// Claims lists every claimed identifier with its group, in declaration
// order.
func (d *Decl) Claims() []Field {
	var out []Field
	for _, g := range d.Groups {
		for _, f := range g.Fields {
			out = append(out, Field{Name: g.Name, Res: f.Res, Line: f.Line, id: f.id})
		}
	}
	return out
}

var initialisms = map[string]string{
	"id": "ID", "tx": "TX", "rx": "RX", "uart": "UART", "usart": "USART",
	"spi": "SPI", "i2c": "I2C", "led": "LED", "rts": "RTS", "cts": "CTS",
}

// exported maps a declaration key to a Go field name: known initialisms
// are upper-cased, anything else gets its first letter capitalised.
func exported(s string) string {
	if v, ok := initialisms[strings.ToLower(s)]; ok {
		return v
	}
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func quote(s string) string { return "\"" + s + "\"" }
