package factories

import (
	"math"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

// Categories are product categories with a typical price and weight.
var Categories = []struct {
	Name    string
	Price   float64
	WeightG float64
}{
	{"cama_mesa_banho", 90, 1500},
	{"beleza_saude", 120, 800},
	{"esporte_lazer", 110, 1800},
	{"moveis_decoracao", 95, 3500},
	{"informatica_acessorios", 115, 900},
	{"utilidades_domesticas", 85, 2000},
	{"relogios_presentes", 200, 500},
	{"telefonia", 70, 300},
	{"ferramentas_jardim", 110, 2500},
	{"automotivo", 130, 2200},
	{"brinquedos", 100, 1200},
	{"cool_stuff", 160, 2300},
	{"perfumaria", 110, 500},
	{"bebes", 125, 2000},
	{"eletronicos", 60, 400},
	{"papelaria", 90, 900},
	{"fashion_bolsas_e_acessorios", 75, 500},
	{"pet_shop", 110, 1700},
	{"moveis_escritorio", 160, 11000},
	{"consoles_games", 140, 900},
	{"malas_acessorios", 150, 5000},
	{"eletroportateis", 280, 4000},
}

type ProductFactory struct {
	fake faker.Faker
}

func NewProductFactory(fake faker.Faker) *ProductFactory {
	return &ProductFactory{fake: fake}
}

// CreateProduct returns the product and its list price. Roughly two percent
// of products have no category or listing metadata, like the source data.
func (pf *ProductFactory) CreateProduct() (models.Product, float64) {
	c := Categories[pf.fake.IntBetween(0, len(Categories)-1)]
	price := math.Round(c.Price*pf.fake.Float64(2, 30, 250)) / 100
	weight := math.Round(c.WeightG * pf.fake.Float64(2, 20, 300) / 100)

	p := models.Product{
		ID:                cuid.New(),
		Category:          c.Name,
		NameLength:        float64(pf.fake.IntBetween(20, 64)),
		DescriptionLength: float64(pf.fake.IntBetween(80, 3000)),
		PhotosQty:         float64(pf.fake.IntBetween(1, 8)),
		WeightG:           weight,
		LengthCm:          float64(pf.fake.IntBetween(10, 80)),
		HeightCm:          float64(pf.fake.IntBetween(2, 60)),
		WidthCm:           float64(pf.fake.IntBetween(10, 60)),
	}
	if pf.fake.IntBetween(1, 100) <= 2 {
		p.Category = ""
		p.NameLength = math.NaN()
		p.DescriptionLength = math.NaN()
		p.PhotosQty = math.NaN()
	}
	return p, price
}
