package enum

// PackagingType tags the wrapping used for a sale line. Tags are matched
// exactly; a value outside the known set is kept as-is so pricing can reject it.
type PackagingType string

const (
	PackagingTypePackage  PackagingType = "package"
	PackagingTypeSmallBag PackagingType = "small-bag"
	PackagingTypeLargeBag PackagingType = "large-bag"
)

// PackagingTypes lists the known packaging tags in display order.
func PackagingTypes() []PackagingType {
	return []PackagingType{PackagingTypePackage, PackagingTypeSmallBag, PackagingTypeLargeBag}
}

func (t PackagingType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known packaging tags.
func (t PackagingType) IsValid() bool {
	for _, known := range PackagingTypes() {
		if t == known {
			return true
		}
	}
	return false
}
