package core

// Classification 表达式或声明类型的静态形状分类
// Unknown 是所有无法判定情况的安全默认值，永远不会触发诊断
type Classification int

const (
	Unknown Classification = iota
	Pointer
	Integral
	Boolean
)

// String 返回分类的可读名称
func (c Classification) String() string {
	switch c {
	case Pointer:
		return "pointer"
	case Integral:
		return "integral"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// ValueType 带间接层级的分类结果
// Pointer 记录指针间接层级，Arrays 记录值语义的数组维度
// （局部数组变量不退化为指针；只有函数参数中的数组会退化）
type ValueType struct {
	Pointer int
	Arrays  int
	Base    Classification
}

// unknownValue 统一的安全默认值
var unknownValue = ValueType{Base: Unknown}

// Classify 把 ValueType 折叠为四态分类
// 带指针间接的是 Pointer；值语义数组既不是指针也不是整数，归为 Unknown
func (v ValueType) Classify() Classification {
	if v.Pointer > 0 {
		return Pointer
	}
	if v.Arrays > 0 {
		return Unknown
	}
	return v.Base
}

// Deref 解引用一次：先剥数组维度，再剥指针层级
func (v ValueType) Deref() ValueType {
	if v.Arrays > 0 {
		v.Arrays--
		return v
	}
	if v.Pointer > 0 {
		v.Pointer--
		return v
	}
	return unknownValue
}

// AddressOf 取地址：增加一层指针间接
func (v ValueType) AddressOf() ValueType {
	v.Pointer++
	return v
}

// Index 下标访问，语义与 Deref 相同
func (v ValueType) Index() ValueType {
	return v.Deref()
}

// DecayParam 函数参数的数组到指针退化
func (v ValueType) DecayParam() ValueType {
	if v.Arrays > 0 {
		v.Arrays--
		v.Pointer++
	}
	return v
}
