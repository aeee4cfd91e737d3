package factories

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/jaswdr/faker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickRegionFollowsWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	counts := make(map[string]int)
	for i := 0; i < 5000; i++ {
		counts[PickRegion(rng).State]++
	}
	// Sao Paulo carries the largest weight
	for state, n := range counts {
		if state != "SP" {
			assert.Greater(t, counts["SP"], n, state)
		}
	}
}

func TestZipPrefixStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, r := range Regions {
		for i := 0; i < 50; i++ {
			zip := r.ZipPrefix(rng)
			require.Len(t, zip, 5)
			n, err := strconv.Atoi(zip)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, r.ZipLow)
			assert.LessOrEqual(t, n, r.ZipHigh)
		}
	}
}

func TestAroundStaysNearReference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	r := Regions[0]
	for i := 0; i < 100; i++ {
		loc := r.Around(rng, 50)
		assert.LessOrEqual(t, math.Abs(loc.Lat-r.Lat), 50/111.0+1e-9)
	}
}

func TestCreateCustomerAndSeller(t *testing.T) {
	fake := faker.NewWithSeed(rand.NewSource(4))
	region := Regions[1]

	c := NewCustomerFactory(fake).CreateCustomer(region, "20001")
	assert.NotEmpty(t, c.ID)
	assert.NotEqual(t, c.ID, c.UniqueID)
	assert.Equal(t, "20001", c.ZipCodePrefix)
	assert.Equal(t, region.State, c.State)
	assert.NotEmpty(t, c.City)

	sf := NewSellerFactory(fake)
	s := sf.CreateSeller(region, "20002")
	assert.Equal(t, region.Capital, s.City)
	for i := 0; i < 100; i++ {
		d := sf.HandlingDays()
		assert.GreaterOrEqual(t, d, 1.0)
		assert.LessOrEqual(t, d, 9.0)
	}
}

func TestCreateProduct(t *testing.T) {
	pf := NewProductFactory(faker.NewWithSeed(rand.NewSource(5)))
	missing := 0
	for i := 0; i < 500; i++ {
		p, price := pf.CreateProduct()
		assert.NotEmpty(t, p.ID)
		assert.Positive(t, price)
		assert.Positive(t, p.WeightG)
		if p.Category == "" {
			missing++
			assert.True(t, math.IsNaN(p.PhotosQty))
		}
	}
	assert.Less(t, missing, 50)
}
