package dispatch

import "analysis-systemv1/internal/catalog"

// BackendStatus reports one backend's usability.
type BackendStatus struct {
	Kind   string `json:"kind"`
	Usable bool   `json:"usable"`
}

// Description is the introspection snapshot returned by Describe: which
// backends are usable and which catalog indicators can actually run under
// the current capabilities. Both indicator lists carry full descriptors so
// callers see each indicator's backend, parameters, and bar minimum.
type Description struct {
	Backends     []BackendStatus      `json:"backends"`
	Supported    []catalog.Descriptor `json:"supported"`
	AvailableNow []catalog.Descriptor `json:"available_now"`
	Total        int                  `json:"total"`
	Available    int                  `json:"available"`
}

// Describe lists every registered indicator and collects those whose
// fallback chain is non-empty under the current capability set.
func (dp *Dispatcher) Describe() Description {
	desc := Description{Supported: dp.catalog.ListAll()}
	for _, k := range catalog.Kinds {
		desc.Backends = append(desc.Backends, BackendStatus{Kind: string(k), Usable: dp.caps.Usable(k)})
	}
	for _, d := range desc.Supported {
		if len(dp.chain(d)) > 0 {
			desc.AvailableNow = append(desc.AvailableNow, d)
		}
	}
	desc.Total = dp.catalog.Len()
	desc.Available = len(desc.AvailableNow)
	return desc
}
