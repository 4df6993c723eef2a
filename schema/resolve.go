package schema

import (
	"fmt"
	"slices"
	"strings"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/expr"
	"dtfabric/internal/common"
	"dtfabric/registry"
)

// resolve performs the second pass described in the reader's design: size
// validation, name-reference resolution with ownership-cycle detection,
// structure-family/group cross-checks, and expression scope checks. It
// mutates the Definitions already registered in reg in place.
func resolve(reg *registry.Registry, docs []*doc) error {
	for _, d := range docs {
		if err := validateFixedSize(d.def); err != nil {
			return err
		}
	}

	if err := validateTerminatorCoexistence(docs); err != nil {
		return err
	}

	visiting := make(map[string]bool)
	resolved := make(map[string]bool)

	for _, d := range docs {
		if err := resolveDef(d.def, reg, visiting, resolved); err != nil {
			return err
		}
	}

	for _, d := range docs {
		switch def := d.def.(type) {
		case *definitions.StructureFamily:
			if err := validateFamily(def); err != nil {
				return err
			}
		case *definitions.StructureGroup:
			if err := validateGroup(def); err != nil {
				return err
			}
		}
	}

	for _, d := range docs {
		if s, ok := d.def.(*definitions.Structure); ok {
			if err := validateExpressionScopes(s, nil); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateFixedSize(def definitions.Definition) error {
	switch d := def.(type) {
	case definitions.Boolean:
		return checkAllowedSize(d.Name(), d.Size, d.Units, definitions.AllowedBooleanSizes)
	case definitions.Character:
		return checkAllowedSize(d.Name(), d.Size, d.Units, definitions.AllowedCharacterSizes)
	case definitions.Integer:
		return checkAllowedSize(d.Name(), d.Size, d.Units, definitions.AllowedIntegerSizes)
	case definitions.FloatingPoint:
		return checkAllowedSize(d.Name(), d.Size, d.Units, definitions.AllowedFloatingPointSizes)
	case definitions.UUID:
		return checkAllowedSize(d.Name(), d.Size, d.Units, definitions.AllowedUUIDSizes)
	default:
		return nil
	}
}

func checkAllowedSize(name string, size int, units string, allowed []int) error {
	if units != definitions.UnitsBytes || size == definitions.SizeNative {
		return nil
	}

	if !slices.Contains(allowed, size) {
		return dterr.New(dterr.KindSchemaError, name, "",
			"size %d is not one of the sizes allowed for this kind %v", size, allowed)
	}

	return nil
}

// resolveDef resolves def's owned name references into direct handles and
// recurses into them, using a classic white/grey/black DFS: visiting holds
// the grey (on-stack) set, resolved the black (finished) set. A reference
// back into the grey set is a DefinitionCycle.
func resolveDef(def definitions.Definition, reg *registry.Registry, visiting, resolved map[string]bool) error {
	key := def.Name()
	if resolved[key] {
		return nil
	}

	if visiting[key] {
		return dterr.New(dterr.KindDefinitionCycle, key, "",
			"definition %q is part of an ownership cycle", key)
	}

	visiting[key] = true

	var err error

	switch d := def.(type) {
	case *definitions.Sequence:
		err = resolveElementSequence(&d.ElementSequence, reg, visiting, resolved)
	case *definitions.Stream:
		err = resolveElementSequence(&d.ElementSequence, reg, visiting, resolved)
	case *definitions.String:
		err = resolveElementSequence(&d.ElementSequence, reg, visiting, resolved)

	case *definitions.Structure:
		for _, m := range d.Members {
			if err = resolveMember(m, reg, visiting, resolved); err != nil {
				break
			}
		}

	case *definitions.Union:
		for _, m := range d.Members {
			if err = resolveMember(m, reg, visiting, resolved); err != nil {
				break
			}
		}

	case *definitions.Format:
		for i := range d.Layout {
			var target definitions.Definition

			target, err = reg.Resolve(d.Layout[i].DataType)
			if err != nil {
				break
			}

			d.Layout[i].DataTypeDef = target

			if err = resolveDef(target, reg, visiting, resolved); err != nil {
				break
			}
		}

	case *definitions.StructureFamily:
		err = resolveFamilyRefs(d, reg, visiting, resolved)

	case *definitions.StructureGroup:
		err = resolveGroupRefs(d, reg, visiting, resolved)
	}

	delete(visiting, key)

	if err != nil {
		return err
	}

	resolved[key] = true

	return nil
}

func resolveElementSequence(es *definitions.ElementSequence, reg *registry.Registry, visiting, resolved map[string]bool) error {
	target, err := reg.Resolve(es.ElementDataType)
	if err != nil {
		return err
	}

	es.ElementDataTypeDef = target

	return resolveDef(target, reg, visiting, resolved)
}

func resolveMember(m *definitions.Member, reg *registry.Registry, visiting, resolved map[string]bool) error {
	if m.InlineType != nil {
		return resolveDef(m.InlineType, reg, visiting, resolved)
	}

	target, err := reg.Resolve(m.DataType)
	if err != nil {
		return err
	}

	m.DataTypeDef = target

	return resolveDef(target, reg, visiting, resolved)
}

func resolveFamilyRefs(f *definitions.StructureFamily, reg *registry.Registry, visiting, resolved map[string]bool) error {
	base, err := reg.Resolve(f.BaseName)
	if err != nil {
		return err
	}

	baseStruct, ok := base.(*definitions.Structure)
	if !ok {
		return dterr.New(dterr.KindFamilyMemberMismatch, f.Name(), "",
			"base %q is not a structure", f.BaseName)
	}

	f.BaseDef = baseStruct

	if err := resolveDef(baseStruct, reg, visiting, resolved); err != nil {
		return err
	}

	for _, name := range f.Members {
		target, err := reg.Resolve(name)
		if err != nil {
			return err
		}

		variant, ok := target.(*definitions.Structure)
		if !ok {
			return dterr.New(dterr.KindFamilyMemberMismatch, f.Name(), name,
				"member %q is not a structure", name)
		}

		f.MemberDefs = append(f.MemberDefs, variant)

		if err := resolveDef(variant, reg, visiting, resolved); err != nil {
			return err
		}
	}

	return nil
}

func resolveGroupRefs(g *definitions.StructureGroup, reg *registry.Registry, visiting, resolved map[string]bool) error {
	base, err := reg.Resolve(g.BaseName)
	if err != nil {
		return err
	}

	baseStruct, ok := base.(*definitions.Structure)
	if !ok {
		return dterr.New(dterr.KindGroupMemberInvalid, g.Name(), "",
			"base %q is not a structure", g.BaseName)
	}

	g.BaseDef = baseStruct

	if err := resolveDef(baseStruct, reg, visiting, resolved); err != nil {
		return err
	}

	for _, name := range g.Variants {
		target, err := reg.Resolve(name)
		if err != nil {
			return err
		}

		variant, ok := target.(*definitions.Structure)
		if !ok {
			return dterr.New(dterr.KindGroupMemberInvalid, g.Name(), name,
				"variant %q is not a structure", name)
		}

		g.VariantDefs = append(g.VariantDefs, variant)

		if err := resolveDef(variant, reg, visiting, resolved); err != nil {
			return err
		}
	}

	if g.DefaultName != "" {
		target, err := reg.Resolve(g.DefaultName)
		if err != nil {
			return err
		}

		defaultStruct, ok := target.(*definitions.Structure)
		if !ok {
			return dterr.New(dterr.KindGroupMemberInvalid, g.Name(), g.DefaultName,
				"default %q is not a structure", g.DefaultName)
		}

		g.DefaultDef = defaultStruct

		if err := resolveDef(defaultStruct, reg, visiting, resolved); err != nil {
			return err
		}
	}

	return nil
}

func findMember(s *definitions.Structure, name string) *definitions.Member {
	for _, m := range s.Members {
		if m.Name == name {
			return m
		}
	}

	return nil
}

func compatibleMemberTypes(a, b definitions.Definition) bool {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}

	aSize, aOK := a.ByteSize()
	bSize, bOK := b.ByteSize()

	if aOK != bOK {
		return false
	}

	return !aOK || aSize == bSize
}

// validateFamily checks that every variant structure defines at least the
// base's members with a compatible type and size.
func validateFamily(f *definitions.StructureFamily) error {
	if f.BaseDef == nil {
		return nil
	}

	if common.IsEmpty(f.MemberDefs) {
		return dterr.New(dterr.KindFamilyMemberMismatch, f.Name(), "",
			"structure-family %q declares no variants", f.Name())
	}

	for i, variant := range f.MemberDefs {
		for _, baseMember := range f.BaseDef.Members {
			vm := findMember(variant, baseMember.Name)
			if vm == nil {
				return dterr.New(dterr.KindFamilyMemberMismatch, f.Name(), f.Members[i],
					"variant %q is missing base member %q", variant.Name(), baseMember.Name)
			}

			if !compatibleMemberTypes(vm.ResolvedType(), baseMember.ResolvedType()) {
				return dterr.New(dterr.KindFamilyMemberMismatch, f.Name(), f.Members[i],
					"variant %q member %q has a type incompatible with the base", variant.Name(), baseMember.Name)
			}
		}
	}

	return nil
}

// validateGroup checks the base carries the identifier member, every
// variant pins it, and pinned values are pairwise distinct.
func validateGroup(g *definitions.StructureGroup) error {
	if g.BaseDef == nil {
		return nil
	}

	if findMember(g.BaseDef, g.IdentifierMember) == nil {
		return dterr.New(dterr.KindGroupMemberInvalid, g.Name(), g.IdentifierMember,
			"base %q has no member named %q", g.BaseDef.Name(), g.IdentifierMember)
	}

	if common.IsEmpty(g.VariantDefs) {
		return dterr.New(dterr.KindGroupMemberInvalid, g.Name(), g.IdentifierMember,
			"structure-group %q declares no variants", g.Name())
	}

	seenBy := make(map[string]string)

	for i, variant := range g.VariantDefs {
		vm := findMember(variant, g.IdentifierMember)
		if vm == nil {
			return dterr.New(dterr.KindGroupMemberInvalid, g.Name(), g.Variants[i],
				"variant %q does not contain identifier member %q", variant.Name(), g.IdentifierMember)
		}

		if common.IsEmpty(vm.PinnedValues) {
			return dterr.New(dterr.KindGroupMemberInvalid, g.Name(), g.Variants[i],
				"variant %q does not pin %q with a value", variant.Name(), g.IdentifierMember)
		}

		for _, pv := range vm.PinnedValues {
			key := fmt.Sprint(pv)
			if existing, ok := seenBy[key]; ok {
				return dterr.New(dterr.KindGroupDiscriminantCollision, g.Name(), g.Variants[i],
					"variants %q and %q both pin discriminant value %v", existing, variant.Name(), pv)
			}

			seenBy[key] = variant.Name()
		}
	}

	return nil
}

// asElementSequence recovers the embedded ElementSequence of a
// sequence/stream/string Definition, if t is one.
func asElementSequence(t definitions.Definition) (*definitions.ElementSequence, bool) {
	switch v := t.(type) {
	case *definitions.Sequence:
		return &v.ElementSequence, true
	case *definitions.Stream:
		return &v.ElementSequence, true
	case *definitions.String:
		return &v.ElementSequence, true
	default:
		return nil, false
	}
}

// validateExpressionScopes walks a structure's members in declaration
// order, checking that every path referenced by a condition or
// count/size expression names either a preceding sibling member or a
// member of an enclosing ancestor structure (optionally qualified by the
// ancestor's own name), per the reader's forward-reference rule.
func validateExpressionScopes(s *definitions.Structure, ancestors []*definitions.Structure) error {
	known := make(map[string]bool)

	for _, m := range s.Members {
		if m.Condition != nil {
			if err := checkPaths(*m.Condition, s, known, ancestors); err != nil {
				return err
			}
		}

		t := m.ResolvedType()

		if seq, ok := asElementSequence(t); ok {
			if seq.NumberOfElementsExpr != nil {
				if err := checkPaths(*seq.NumberOfElementsExpr, s, known, ancestors); err != nil {
					return err
				}
			}

			if seq.ElementsDataSizeExpr != nil {
				if err := checkPaths(*seq.ElementsDataSizeExpr, s, known, ancestors); err != nil {
					return err
				}
			}
		}

		known[m.Name] = true

		if child, ok := t.(*definitions.Structure); ok {
			if err := validateExpressionScopes(child, append(ancestors, s)); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkPaths(e expr.Expr, s *definitions.Structure, known map[string]bool, ancestors []*definitions.Structure) error {
	for _, p := range expr.Paths(e) {
		segments := strings.SplitN(p, ".", 2)
		root := segments[0]

		if known[root] {
			continue
		}

		if root == s.Name() && len(segments) == 2 && known[segments[1]] {
			continue
		}

		found := false

		for i := len(ancestors) - 1; i >= 0; i-- {
			anc := ancestors[i]

			if anc.Name() == root {
				found = len(segments) < 2 || findMember(anc, segments[1]) != nil
				break
			}

			if findMember(anc, root) != nil {
				found = true
				break
			}
		}

		if !found {
			return dterr.New(dterr.KindExpressionSyntaxError, s.Name(), "",
				"path %q is not defined by a preceding sibling or ancestor member", p)
		}
	}

	return nil
}
