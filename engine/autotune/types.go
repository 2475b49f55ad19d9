// Package autotune validates the resource overrides that automated tuning
// writes for each service instance.
package autotune

import (
	"regexp"
)

// Field names of an override record.
const (
	FieldCPUs         = "cpus"
	FieldCPUBurstAdd  = "cpu_burst_add"
	FieldDisk         = "disk"
	FieldMinInstances = "min_instances"
	FieldMaxInstances = "max_instances"
	FieldMem          = "mem"
)

// Fields lists every field an override record may carry.
var Fields = []string{
	FieldCPUs,
	FieldCPUBurstAdd,
	FieldDisk,
	FieldMinInstances,
	FieldMaxInstances,
	FieldMem,
}

// InstanceKeyPattern is the pattern every service instance key must match.
const InstanceKeyPattern = `^([a-z0-9]|[a-z0-9][a-z0-9_-]*[a-z0-9])*$`

var instanceKeyRegexp = regexp.MustCompile(InstanceKeyPattern)

// IsValidInstanceKey reports whether key is an acceptable service instance name.
func IsValidInstanceKey(key string) bool {
	return instanceKeyRegexp.MatchString(key)
}

// ResourceOverride holds the tunable resources of one service instance.
// Nil fields are not overridden.
type ResourceOverride struct {
	CPUs         *float64 `json:"cpus,omitempty"          yaml:"cpus,omitempty"          validate:"omitnil,gt=0"`
	CPUBurstAdd  *float64 `json:"cpu_burst_add,omitempty" yaml:"cpu_burst_add,omitempty" validate:"omitnil,gte=0"`
	Disk         *float64 `json:"disk,omitempty"          yaml:"disk,omitempty"          validate:"omitnil,gt=128"`
	MinInstances *int     `json:"min_instances,omitempty" yaml:"min_instances,omitempty" validate:"omitnil,gte=0"`
	MaxInstances *int     `json:"max_instances,omitempty" yaml:"max_instances,omitempty" validate:"omitnil,gte=0"`
	Mem          *float64 `json:"mem,omitempty"           yaml:"mem,omitempty"           validate:"omitnil,gt=32"`
}

// IsEmpty reports whether no field is set.
func (r ResourceOverride) IsEmpty() bool {
	return r.CPUs == nil && r.CPUBurstAdd == nil && r.Disk == nil &&
		r.MinInstances == nil && r.MaxInstances == nil && r.Mem == nil
}

// Overrides maps service instance names to their resource overrides.
type Overrides map[string]ResourceOverride

// Float returns a pointer to v, for building overrides in code.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for building overrides in code.
func Int(v int) *int {
	return &v
}
