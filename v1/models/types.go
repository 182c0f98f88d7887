package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// roleRank fixes the canonical serialization order of roles
var roleRank = map[Role]int{
	RoleMember:    0,
	RoleCollector: 1,
	RoleAdmin:     2,
}

// RoleSet represents the set of roles held by a profile. It is persisted as a
// comma-delimited string with no duplicates; an empty set is stored as NULL.
type RoleSet []Role

// ParseRoleSet parses a comma-delimited role string into a normalized RoleSet.
// Unknown role names are rejected.
func ParseRoleSet(s string) (RoleSet, error) {
	if strings.TrimSpace(s) == "" {
		return RoleSet{}, nil
	}

	var rs RoleSet
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		role := Role(token)
		if !role.IsValid() {
			return nil, fmt.Errorf("unknown role: %q", token)
		}
		rs = rs.Add(role)
	}
	return rs, nil
}

// String serializes the set as a comma-delimited string in canonical order
func (rs RoleSet) String() string {
	normalized := rs.normalize()
	parts := make([]string, len(normalized))
	for i, role := range normalized {
		parts[i] = string(role)
	}
	return strings.Join(parts, ",")
}

// Has checks whether the set contains the given role
func (rs RoleSet) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Add returns a set with the role union-added. Adding a role already present
// is a no-op.
func (rs RoleSet) Add(role Role) RoleSet {
	if rs.Has(role) {
		return rs.normalize()
	}
	return append(rs.normalize(), role).normalize()
}

// Remove returns a set with the role removed
func (rs RoleSet) Remove(role Role) RoleSet {
	var out RoleSet
	for _, r := range rs.normalize() {
		if r != role {
			out = append(out, r)
		}
	}
	return out
}

// Toggle flips membership of the role: present is removed, absent is added
func (rs RoleSet) Toggle(role Role) RoleSet {
	if rs.Has(role) {
		return rs.Remove(role)
	}
	return rs.Add(role)
}

// IsEmpty reports whether the set holds no roles
func (rs RoleSet) IsEmpty() bool {
	return len(rs) == 0
}

// normalize deduplicates and sorts the set into canonical order
func (rs RoleSet) normalize() RoleSet {
	seen := make(map[Role]bool, len(rs))
	var out RoleSet
	for _, r := range rs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	// Insertion sort keeps the canonical member/collector/admin order
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && roleRank[out[j]] < roleRank[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Scan implements the sql.Scanner interface for RoleSet
func (rs *RoleSet) Scan(value interface{}) error {
	if value == nil {
		*rs = RoleSet{}
		return nil
	}

	var s string
	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("cannot scan %T into RoleSet", value)
	}

	// Stored rows may predate the closed role set; unknown tokens are dropped
	// rather than failing the whole read
	var out RoleSet
	for _, token := range strings.Split(s, ",") {
		role := Role(strings.TrimSpace(token))
		if role.IsValid() {
			out = out.Add(role)
		}
	}
	*rs = out
	return nil
}

// Value implements the driver.Valuer interface for RoleSet. An empty set is
// stored as NULL.
func (rs RoleSet) Value() (driver.Value, error) {
	if rs.IsEmpty() {
		return nil, nil
	}
	return rs.String(), nil
}

// GormDataType gorm common data type
func (RoleSet) GormDataType() string {
	return "text"
}

// MarshalJSON serializes the set as a JSON array in canonical order
func (rs RoleSet) MarshalJSON() ([]byte, error) {
	normalized := rs.normalize()
	out := make([]string, len(normalized))
	for i, r := range normalized {
		out[i] = string(r)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a JSON array of role names
func (rs *RoleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}

	var out RoleSet
	for _, name := range names {
		role := Role(name)
		if !role.IsValid() {
			return fmt.Errorf("unknown role: %q", name)
		}
		out = out.Add(role)
	}
	*rs = out
	return nil
}

// FlexibleStringSlice can unmarshal both single string and string array from JSON
type FlexibleStringSlice []string

// UnmarshalJSON implements custom unmarshaling to handle both string and []string
func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var strArray []string
	arrayErr := json.Unmarshal(data, &strArray)
	if arrayErr == nil {
		if err := validateStringSlice(strArray); err != nil {
			return fmt.Errorf("invalid string array: %v", err)
		}
		*f = FlexibleStringSlice(strArray)
		return nil
	}

	var str string
	stringErr := json.Unmarshal(data, &str)
	if stringErr == nil {
		if err := validateString(str); err != nil {
			return fmt.Errorf("invalid string: %v", err)
		}
		*f = FlexibleStringSlice([]string{str})
		return nil
	}

	return fmt.Errorf("failed to unmarshal FlexibleStringSlice: cannot parse as []string (%v) or string (%v), data: %s",
		arrayErr, stringErr, string(data))
}

// ToStringSlice converts to regular string slice
func (f *FlexibleStringSlice) ToStringSlice() []string {
	return []string(*f)
}

// validateString validates a single string for security concerns
func validateString(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("empty string not allowed")
	}

	const maxStringLength = 1024
	if len(s) > maxStringLength {
		return fmt.Errorf("string too long (max %d characters)", maxStringLength)
	}

	for i, b := range []byte(s) {
		if b == 0 {
			return fmt.Errorf("null byte found at position %d", i)
		}
	}

	return nil
}

// validateStringSlice validates all strings in a slice
func validateStringSlice(slice []string) error {
	const maxArrayLength = 100
	if len(slice) > maxArrayLength {
		return fmt.Errorf("array too large (max %d elements)", maxArrayLength)
	}

	for i, s := range slice {
		if err := validateString(s); err != nil {
			return fmt.Errorf("element %d: %v", i, err)
		}
	}

	return nil
}
