// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import (
	"fmt"
	"strings"

	"github.com/resymgo/resym/internal/codeview"
)

// ReconstructOptions configures text emission and, transitively, which
// primitive flavor the type namer spells with.
type ReconstructOptions struct {
	PrimitivesFlavor        Flavor
	ReconstructDependencies bool
	PrintAccessSpecifiers   bool
	PrintHeader             bool
	IntegersAsHexadecimal   bool
}

// IncludeHeaderForFlavor returns the #include line a Portable-flavor
// reconstruction should be prefixed with, since that flavor spells
// primitives using <cstdint> typedefs. Other flavors need none.
func IncludeHeaderForFlavor(f Flavor) string {
	if f == FlavorPortable {
		return "#include <cstdint>\n"
	}
	return ""
}

// Bundle is the dependency closure's output: every type the closure
// discovered, already built into aggregates, ready for emission in a
// fixed top-level order.
type Bundle struct {
	ForwardRefs []ForwardReference
	Enums       []*Enumeration
	Classes     []*Class
	Unions      []*Union
}

// Render serializes the bundle to C++ declarative text: forward
// references first, then enums, then classes/structs, then unions,
// each top-level declaration preceded by a blank line.
func (b *Bundle) Render(opts ReconstructOptions) string {
	var out strings.Builder

	for _, fr := range b.ForwardRefs {
		if fr.Kind == ForwardEnum {
			continue
		}
		fmt.Fprintf(&out, "%s %s;\n", fr.Kind, fr.Name)
	}
	for _, e := range b.Enums {
		out.WriteByte('\n')
		renderEnum(&out, e, opts)
	}
	for _, c := range b.Classes {
		out.WriteByte('\n')
		renderClass(&out, c, opts)
	}
	for _, u := range b.Unions {
		out.WriteByte('\n')
		renderUnion(&out, u, opts)
	}

	return out.String()
}

func renderEnum(out *strings.Builder, e *Enumeration, opts ReconstructOptions) {
	fmt.Fprintf(out, "enum %s : %s%s {\n", e.Name, e.UnderlyingTypeLeft, e.UnderlyingTypeRight)
	for _, v := range e.Values {
		out.WriteString("  ")
		out.WriteString(v.Name)
		out.WriteString(" = ")
		out.WriteString(renderVariant(v.Value, opts.IntegersAsHexadecimal))
		out.WriteString(",\n")
	}
	out.WriteString("};\n")
}

func renderVariant(v codeview.Variant, hex bool) string {
	if !hex || v.IsSigned() {
		return v.String()
	}
	return fmt.Sprintf("0x%x", v.Uint64())
}

func renderClass(out *strings.Builder, c *Class, opts ReconstructOptions) {
	fmt.Fprintf(out, "%s %s", c.Kind, c.Name)
	for i, base := range c.BaseClasses {
		if i == 0 {
			out.WriteString(" : ")
		} else {
			out.WriteString(", ")
		}
		// Base-class access is part of the inheritance syntax itself
		// and renders whenever present, unlike field/method access,
		// which sits behind the PrintAccessSpecifiers toggle.
		if base.Access != AccessNone {
			out.WriteString(base.Access.String())
			out.WriteByte(' ')
		}
		out.WriteString(base.Name)
	}
	fmt.Fprintf(out, " { /* Size=0x%x */\n", c.Size)

	for _, base := range c.BaseClasses {
		fmt.Fprintf(out, "  /* 0x%04x: fields for %s */\n", base.Offset, base.Name)
	}

	renderNested(out, c.NestedClasses, c.NestedUnions, c.NestedEnums, opts)

	renderGroups(out, c.Groups, opts, 1)

	for _, sf := range c.StaticFields {
		renderStaticField(out, sf, opts)
	}
	renderMethodBlock(out, c.InstanceMethods, opts, false)
	renderMethodBlock(out, c.StaticMethods, opts, true)

	out.WriteString("};\n")
}

func renderUnion(out *strings.Builder, u *Union, opts ReconstructOptions) {
	fmt.Fprintf(out, "union %s { /* Size=0x%x */\n", u.Name, u.Size)

	renderNested(out, u.NestedClasses, u.NestedUnions, u.NestedEnums, opts)

	renderGroups(out, u.Groups, opts, 1)

	for _, sf := range u.StaticFields {
		renderStaticField(out, sf, opts)
	}
	renderMethodBlock(out, u.InstanceMethods, opts, false)
	renderMethodBlock(out, u.StaticMethods, opts, true)

	out.WriteString("};\n")
}

// renderNested emits each nested-declaration group (classes, unions,
// enums) behind its own "  " separator line when that group is
// non-empty; each group gets its own marker rather than one shared
// separator for all three.
func renderNested(out *strings.Builder, classes []*Class, unions []*Union, enums []*Enumeration, opts ReconstructOptions) {
	if len(classes) > 0 {
		out.WriteString("  \n")
		for _, c := range classes {
			renderClass(out, c, opts)
		}
	}
	if len(unions) > 0 {
		out.WriteString("  \n")
		for _, un := range unions {
			renderUnion(out, un, opts)
		}
	}
	if len(enums) > 0 {
		out.WriteString("  \n")
		for _, e := range enums {
			renderEnum(out, e, opts)
		}
	}
}

// renderMethodBlock emits a "  " separator line before a non-empty
// method list, then each method declaration.
func renderMethodBlock(out *strings.Builder, methods []Method, opts ReconstructOptions, isStatic bool) {
	if len(methods) == 0 {
		return
	}
	out.WriteString("  \n")
	renderMethods(out, methods, opts, isStatic)
}

// renderGroups walks the inferred grouping tree, emitting nested
// union/struct blocks at increasing indentation.
func renderGroups(out *strings.Builder, groups []FieldGroup, opts ReconstructOptions, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, g := range groups {
		switch g.Kind {
		case GroupPlain:
			renderField(out, *g.Field, opts, indent)
		case GroupUnion:
			fmt.Fprintf(out, "%sunion {\n", pad)
			renderGroups(out, g.Members, opts, indent+1)
			fmt.Fprintf(out, "%s};\n", pad)
		case GroupStruct:
			fmt.Fprintf(out, "%sstruct {\n", pad)
			renderGroups(out, g.Members, opts, indent+1)
			fmt.Fprintf(out, "%s};\n", pad)
		}
	}
}

func renderField(out *strings.Builder, f Field, opts ReconstructOptions, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(out, "%s/* 0x%04x */ ", pad, f.Offset)
	if opts.PrintAccessSpecifiers && f.Access != AccessNone {
		out.WriteString(f.Access.String())
		out.WriteString(": ")
	}
	out.WriteString(f.TypeLeft)
	out.WriteString(" ")
	out.WriteString(f.Name)
	out.WriteString(f.TypeRight)
	out.WriteString(";\n")
}

func renderStaticField(out *strings.Builder, sf StaticField, opts ReconstructOptions) {
	out.WriteString("  ")
	if opts.PrintAccessSpecifiers && sf.Access != AccessNone {
		out.WriteString(sf.Access.String())
		out.WriteString(": ")
	}
	out.WriteString("static ")
	out.WriteString(sf.TypeLeft)
	out.WriteString(" ")
	out.WriteString(sf.Name)
	out.WriteString(sf.TypeRight)
	out.WriteString(";\n")
}

// renderMethods emits one declaration per method. The return type's
// right half (used by pointer-to-function and array return types) is
// appended after the argument list, not before it, so the split
// (left, right) spelling forms one coherent declarator around
// "name(args)". A
// constructor/destructor prints no return-type left half and no
// separating space before its name; a static method can be neither, so
// it always prints its return type and carries no "virtual"/"= 0"
// (a static member function cannot be virtual in C++).
func renderMethods(out *strings.Builder, methods []Method, opts ReconstructOptions, isStatic bool) {
	for _, m := range methods {
		out.WriteString("  ")
		if opts.PrintAccessSpecifiers && m.Access != AccessNone {
			out.WriteString(m.Access.String())
			out.WriteString(": ")
		}
		if isStatic {
			out.WriteString("static ")
		}
		if !isStatic && m.IsVirtual {
			out.WriteString("virtual ")
		}
		skipReturn := !isStatic && (m.IsCtor || m.IsDtor)
		if !skipReturn {
			out.WriteString(m.ReturnLeft)
		}
		if !skipReturn && m.ReturnRight == "" {
			out.WriteString(" ")
		}
		out.WriteString(m.Name)
		out.WriteString("(")
		out.WriteString(m.Arguments)
		out.WriteString(")")
		out.WriteString(m.ReturnRight)
		if m.IsConst {
			out.WriteString(" const")
		}
		if m.IsVolatile {
			out.WriteString(" volatile")
		}
		if !isStatic && m.IsPureVirtual {
			out.WriteString(" = 0")
		}
		out.WriteString(";\n")
	}
}
