package schema

import (
	"github.com/blang/semver/v4"

	"dtfabric/definitions"
	"dtfabric/dterr"
)

// terminatorCoexistenceRevision is the format revision, expressed the way
// dtFabric stamps them (an 8-digit YYYYMMDD integer), from which an
// elements_terminator may co-exist with number_of_elements or
// elements_data_size on the same sequence/stream/string.
var terminatorCoexistenceRevision = semver.Version{Major: 2020, Minor: 6, Patch: 21}

// formatRevision looks for a format document's metadata.format_revision
// attribute and parses it as a calendar-stamped revision. Absent a format
// document, or absent the attribute, the schema is treated as pre-dating
// every revision gate.
func formatRevision(docs []*doc) (semver.Version, bool) {
	for _, d := range docs {
		f, ok := d.def.(*definitions.Format)
		if !ok {
			continue
		}

		raw, ok := f.Metadata["format_revision"]
		if !ok {
			continue
		}

		switch v := raw.(type) {
		case int:
			return revisionFromStamp(v), true
		case int64:
			return revisionFromStamp(int(v)), true
		case string:
			if parsed, err := semver.Parse(v); err == nil {
				return parsed, true
			}
		}
	}

	return semver.Version{}, false
}

func revisionFromStamp(stamp int) semver.Version {
	return semver.Version{
		Major: uint64(stamp / 10000),
		Minor: uint64((stamp / 100) % 100),
		Patch: uint64(stamp % 100),
	}
}

// validateTerminatorCoexistence enforces the format-revision gate on
// elements_terminator co-existing with a count/size bound.
func validateTerminatorCoexistence(docs []*doc) error {
	revision, ok := formatRevision(docs)
	allowed := ok && revision.GE(terminatorCoexistenceRevision)

	if allowed {
		return nil
	}

	for _, d := range docs {
		es, isSeq := asElementSequence(d.def)
		if !isSeq || es.ElementsTerminator == nil {
			continue
		}

		if es.NumberOfElementsExpr != nil || es.ElementsDataSizeExpr != nil {
			return dterr.New(dterr.KindSchemaError, d.def.Name(), "",
				"elements_terminator may only co-exist with number_of_elements or elements_data_size "+
					"from format revision 20200621 onward")
		}
	}

	return nil
}
