package core

import "testing"

func TestValueTypeClassify(t *testing.T) {
	tests := []struct {
		name string
		vt   ValueType
		want Classification
	}{
		{"zero value", ValueType{}, Unknown},
		{"plain integral", ValueType{Base: Integral}, Integral},
		{"boolean", ValueType{Base: Boolean}, Boolean},
		{"single pointer", ValueType{Pointer: 1, Base: Integral}, Pointer},
		{"double pointer", ValueType{Pointer: 2, Base: Unknown}, Pointer},
		{"value array is not a pointer", ValueType{Arrays: 1, Base: Integral}, Unknown},
		{"pointer outranks array dimensions", ValueType{Pointer: 1, Arrays: 2, Base: Integral}, Pointer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vt.Classify(); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueTypeDeref(t *testing.T) {
	tests := []struct {
		name string
		vt   ValueType
		want ValueType
	}{
		{"array dimension peels first", ValueType{Pointer: 1, Arrays: 2, Base: Integral}, ValueType{Pointer: 1, Arrays: 1, Base: Integral}},
		{"pointer peels after arrays", ValueType{Pointer: 2, Base: Integral}, ValueType{Pointer: 1, Base: Integral}},
		{"deref of scalar is unknown", ValueType{Base: Integral}, unknownValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vt.Deref(); got != tt.want {
				t.Errorf("Deref() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValueTypeAddressOf(t *testing.T) {
	got := ValueType{Base: Integral}.AddressOf()
	want := ValueType{Pointer: 1, Base: Integral}
	if got != want {
		t.Errorf("AddressOf() = %+v, want %+v", got, want)
	}
	if got.Classify() != Pointer {
		t.Errorf("address of integral should classify as pointer, got %v", got.Classify())
	}
}

func TestValueTypeDecayParam(t *testing.T) {
	tests := []struct {
		name string
		vt   ValueType
		want ValueType
	}{
		{"array parameter decays to pointer", ValueType{Arrays: 1, Base: Integral}, ValueType{Pointer: 1, Base: Integral}},
		{"only outermost dimension decays", ValueType{Arrays: 2, Base: Integral}, ValueType{Pointer: 1, Arrays: 1, Base: Integral}},
		{"scalar parameter unchanged", ValueType{Base: Integral}, ValueType{Base: Integral}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vt.DecayParam(); got != tt.want {
				t.Errorf("DecayParam() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassificationString(t *testing.T) {
	tests := []struct {
		c    Classification
		want string
	}{
		{Unknown, "unknown"},
		{Pointer, "pointer"},
		{Integral, "integral"},
		{Boolean, "boolean"},
		{Classification(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Classification(%d).String() = %q, want %q", int(tt.c), got, tt.want)
		}
	}
}
