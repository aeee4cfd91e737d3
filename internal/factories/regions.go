package factories

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/chrisdamba/reviewclf/internal/models"
)

// Region is a state with a reference point and a zip prefix range.
type Region struct {
	State   string
	Capital string
	Lat     float64
	Lon     float64
	Weight  float64 // share of customers and sellers
	ZipLow  int
	ZipHigh int
}

var Regions = []Region{
	{"SP", "sao paulo", -23.55, -46.63, 0.42, 1000, 19999},
	{"RJ", "rio de janeiro", -22.91, -43.17, 0.13, 20000, 28999},
	{"MG", "belo horizonte", -19.92, -43.94, 0.12, 30000, 39999},
	{"RS", "porto alegre", -30.03, -51.23, 0.06, 90000, 99999},
	{"PR", "curitiba", -25.43, -49.27, 0.05, 80000, 87999},
	{"SC", "florianopolis", -27.59, -48.55, 0.04, 88000, 89999},
	{"BA", "salvador", -12.97, -38.50, 0.04, 40000, 48999},
	{"DF", "brasilia", -15.79, -47.88, 0.03, 70000, 73699},
	{"GO", "goiania", -16.68, -49.25, 0.03, 72800, 76799},
	{"ES", "vitoria", -20.32, -40.34, 0.03, 29000, 29999},
	{"PE", "recife", -8.05, -34.88, 0.03, 50000, 56999},
	{"CE", "fortaleza", -3.73, -38.52, 0.02, 60000, 63999},
}

// PickRegion draws a region by weight.
func PickRegion(rng *rand.Rand) Region {
	var total float64
	for _, r := range Regions {
		total += r.Weight
	}
	x := rng.Float64() * total
	for _, r := range Regions {
		x -= r.Weight
		if x < 0 {
			return r
		}
	}
	return Regions[len(Regions)-1]
}

// ZipPrefix draws a five digit prefix inside the region. Prefixes below
// 10000 keep their leading zero, as in the source data.
func (r Region) ZipPrefix(rng *rand.Rand) string {
	return fmt.Sprintf("%05d", r.ZipLow+rng.Intn(r.ZipHigh-r.ZipLow+1))
}

// Around returns a point within roughly radiusKm of the region's reference.
func (r Region) Around(rng *rand.Rand, radiusKm float64) models.Location {
	latRange := radiusKm / 111.0
	lonRange := latRange / math.Cos(r.Lat*math.Pi/180.0)
	return models.Location{
		Lat: r.Lat + (rng.Float64()*2-1)*latRange,
		Lon: r.Lon + (rng.Float64()*2-1)*lonRange,
	}
}
