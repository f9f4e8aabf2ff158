package bucketforge

// DefaultRegion is the region used when none is relevant, such as during
// credential validation. It is also the provider's legacy default region,
// which takes no explicit location constraint at bucket creation.
const DefaultRegion = "us-east-1"

// availableRegions is the fixed set of regions the engine will provision in.
var availableRegions = []string{
	"us-east-1", "us-east-2",
	"us-west-1", "us-west-2",
	"ca-central-1", "ca-west-1",
	"eu-west-1", "eu-west-2", "eu-west-3",
	"eu-central-1", "eu-central-2",
	"eu-north-1", "eu-south-1", "eu-south-2",
	"ap-south-1", "ap-south-2",
	"ap-southeast-1", "ap-southeast-2", "ap-southeast-3", "ap-southeast-4",
	"ap-northeast-1", "ap-northeast-2", "ap-northeast-3",
	"ap-east-1",
	"sa-east-1",
	"me-south-1", "me-central-1",
	"il-central-1",
	"af-south-1",
}

// Regions returns the supported region identifiers. The returned slice is a
// copy; callers may reorder it freely.
func Regions() []string {
	out := make([]string, len(availableRegions))
	copy(out, availableRegions)
	return out
}

// IsValidRegion reports whether region is in the supported set.
func IsValidRegion(region string) bool {
	for _, r := range availableRegions {
		if r == region {
			return true
		}
	}
	return false
}
