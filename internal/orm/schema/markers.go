package schema

import "github.com/conduit-lang/descriptor/internal/descriptor/marker"

// Namespace is the struct tag namespace of the persistence markers.
const Namespace = "persist"

// Persistence markers.
//
// Entity level, declared on blank fields:
//
//	_ struct{} `persist:"entity:sample-entity-01,table:samples"`
//
// Property level:
//
//	ID   int64       `persist:"id,generated"`
//	Key  SampleKey01 `persist:"embeddedid"`
//	Name string      `persist:"column:display_name"`
//	Temp string      `persist:"-"`
var (
	MarkerEntity     = marker.Kind{Namespace: Namespace, Name: "entity"}
	MarkerTable      = marker.Kind{Namespace: Namespace, Name: "table"}
	MarkerColumn     = marker.Kind{Namespace: Namespace, Name: "column"}
	MarkerID         = marker.Kind{Namespace: Namespace, Name: "id"}
	MarkerEmbeddedID = marker.Kind{Namespace: Namespace, Name: "embeddedid"}
	MarkerEmbedded   = marker.Kind{Namespace: Namespace, Name: "embedded"}
	MarkerGenerated  = marker.Kind{Namespace: Namespace, Name: "generated"}
	MarkerTransient  = marker.Kind{Namespace: Namespace, Name: "transient"}
	MarkerIgnore     = marker.Kind{Namespace: Namespace, Name: marker.Ignore}
)

// IsTransient reports whether a property is excluded from persistence
func IsTransient(a marker.Annotated) bool {
	return a.Has(MarkerTransient) || a.Has(MarkerIgnore)
}
