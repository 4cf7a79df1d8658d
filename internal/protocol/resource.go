package protocol

// Resource identifies one of the seven collectible kinds. Food is the only
// kind consumed by survival accounting; the six stones are consumed by
// incantations.
type Resource int

const (
	Food Resource = iota
	Linemate
	Deraumere
	Sibur
	Mendiane
	Phiras
	Thystame

	ResourceCount = 7
)

var resourceNames = [ResourceCount]string{
	"nourriture",
	"linemate",
	"deraumere",
	"sibur",
	"mendiane",
	"phiras",
	"thystame",
}

func (r Resource) String() string {
	if r < 0 || int(r) >= ResourceCount {
		return "?"
	}
	return resourceNames[r]
}

func ParseResource(s string) (Resource, bool) {
	for i, n := range resourceNames {
		if s == n {
			return Resource(i), true
		}
	}
	return 0, false
}

// Resources returns the kinds in wire order (the order used by inventory and
// tile-content lines).
func Resources() [ResourceCount]Resource {
	return [ResourceCount]Resource{Food, Linemate, Deraumere, Sibur, Mendiane, Phiras, Thystame}
}
