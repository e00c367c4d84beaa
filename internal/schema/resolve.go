package schema

// Resolution is the effective field and photo set of a module for the current answers.
type Resolution struct {
	VisibleFields      []FieldSpec
	VisiblePhotos      []PhotoSpec
	RequiredFieldNames []string
	RequiredPhotos     []PhotoSpec
	// CabinType is set only for the cabin_type module once a known type is selected.
	CabinType *CabinTypeConfig
}

// IsVisibleField reports whether name is part of the effective field set.
func (r Resolution) IsVisibleField(name string) bool {
	for _, f := range r.VisibleFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ResolveModule resolves a registered module against its current values.
// Unknown modules resolve to an empty set.
func (r *Registry) ResolveModule(moduleID string, values map[string]string) Resolution {
	m, ok := r.Module(moduleID)
	if !ok {
		return Resolution{}
	}
	return r.Resolve(moduleID, m.Fields, m.Photos, values)
}

// Resolve computes the effective visible and required sets of a module.
//
// Every module other than cabin_type resolves to its full catalog. For cabin_type the base
// subset is always visible and the selected cabin type (aliases normalized) appends its
// conditional items. The governing value is read from values only; nothing is cached.
func (r *Registry) Resolve(moduleID string, fields []FieldSpec, photos []PhotoSpec, values map[string]string) Resolution {
	if moduleID != ModuleCabinType {
		return identity(fields, photos)
	}

	res := Resolution{}
	fieldSeen := make(map[string]bool)
	photoSeen := make(map[string]bool)

	addField := func(f FieldSpec) {
		if fieldSeen[f.Name] {
			return
		}
		fieldSeen[f.Name] = true
		res.VisibleFields = append(res.VisibleFields, f)
		if f.Required {
			res.RequiredFieldNames = append(res.RequiredFieldNames, f.Name)
		}
	}
	addPhoto := func(p PhotoSpec) {
		if photoSeen[p.Name] {
			return
		}
		photoSeen[p.Name] = true
		res.VisiblePhotos = append(res.VisiblePhotos, p)
		if p.Required {
			res.RequiredPhotos = append(res.RequiredPhotos, p)
		}
	}

	baseFields := toSet(r.base.Fields)
	for _, f := range fields {
		if baseFields[f.Name] {
			addField(f)
		}
	}
	basePhotos := toSet(r.base.Photos)
	for _, p := range photos {
		if basePhotos[p.Name] {
			addPhoto(p)
		}
	}

	ct, ok := r.CabinType(values[FieldCabinType])
	if !ok {
		return res
	}
	res.CabinType = ct

	for _, name := range ct.ConditionalItems.Fields {
		for _, f := range fields {
			if f.Name == name {
				addField(f)
				break
			}
		}
	}
	for _, name := range ct.ConditionalItems.Photos {
		for _, p := range photos {
			if p.Name == name {
				addPhoto(p)
				break
			}
		}
	}

	return res
}

func identity(fields []FieldSpec, photos []PhotoSpec) Resolution {
	res := Resolution{
		VisibleFields: fields,
		VisiblePhotos: photos,
	}
	for _, f := range fields {
		if f.Required {
			res.RequiredFieldNames = append(res.RequiredFieldNames, f.Name)
		}
	}
	for _, p := range photos {
		if p.Required {
			res.RequiredPhotos = append(res.RequiredPhotos, p)
		}
	}
	return res
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
