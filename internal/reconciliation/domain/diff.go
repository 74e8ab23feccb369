package domain

import "sort"

// Diff compares local and remote records for one entity type. Both maps key
// entity id to a field map in the local vocabulary. Only fields present on
// BOTH sides are compared; the ministry legitimately omits fields it does
// not track.
func Diff(entityType string, local, remote map[string]map[string]string) []Discrepancy {
	var discrepancies []Discrepancy

	for _, key := range sortedKeys(local) {
		remoteFields, ok := remote[key]
		if !ok {
			discrepancies = append(discrepancies, Discrepancy{
				EntityType: entityType,
				Key:        key,
				Type:       MissingInRemote,
			})
			continue
		}

		var diffs []FieldDiff
		localFields := local[key]
		for _, field := range sortedKeys(localFields) {
			remoteValue, present := remoteFields[field]
			if !present {
				continue
			}
			if localFields[field] != remoteValue {
				diffs = append(diffs, FieldDiff{
					Field:       field,
					LocalValue:  localFields[field],
					RemoteValue: remoteValue,
				})
			}
		}
		if len(diffs) > 0 {
			discrepancies = append(discrepancies, Discrepancy{
				EntityType: entityType,
				Key:        key,
				Type:       DataMismatch,
				Fields:     diffs,
			})
		}
	}

	for _, key := range sortedKeys(remote) {
		if _, ok := local[key]; !ok {
			discrepancies = append(discrepancies, Discrepancy{
				EntityType: entityType,
				Key:        key,
				Type:       MissingInLocal,
			})
		}
	}

	return discrepancies
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
