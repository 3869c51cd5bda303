package database

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed/default.yaml
var defaultSeed []byte

type SeedFile struct {
	Zones []SeedZone     `yaml:"zones"`
	Users []SeedUser     `yaml:"users"`
	Menu  []SeedCategory `yaml:"menu"`
}

type SeedZone struct {
	Name   string      `yaml:"name"`
	Tables []SeedTable `yaml:"tables"`
}

type SeedTable struct {
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Capacity int    `yaml:"capacity"`
}

// SeedUser carries the plaintext password; it is hashed before insert.
type SeedUser struct {
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type SeedCategory struct {
	Category  string     `yaml:"category"`
	SortOrder int        `yaml:"sort_order"`
	Dishes    []SeedDish `yaml:"dishes"`
}

type SeedDish struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Price       string       `yaml:"price"`
	Veg         bool         `yaml:"veg"`
	Unavailable bool         `yaml:"unavailable"`
	Portions    []SeedPriced `yaml:"portions"`
	AddOns      []SeedAddOn  `yaml:"add_ons"`
}

type SeedPriced struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

type SeedAddOn struct {
	Name    string       `yaml:"name"`
	Choices []SeedPriced `yaml:"choices"`
}

// LoadSeedFile reads a seed file from path, or the embedded default when
// path is empty.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}

	var sf SeedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &sf, nil
}

// Seed loads the seed file at path (embedded default when empty) and applies it.
func (s *Store) Seed(path string) error {
	sf, err := LoadSeedFile(path)
	if err != nil {
		return err
	}
	return s.Apply(sf)
}

// Apply inserts zones/tables, users and the menu. Each section is skipped
// when its table already has rows, so running it twice is a no-op.
func (s *Store) Apply(sf *SeedFile) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.seedZones(tx, sf.Zones); err != nil {
			return err
		}
		if err := s.seedUsers(tx, sf.Users); err != nil {
			return err
		}
		return s.seedMenu(tx, sf.Menu)
	})
}

func alreadySeeded(tx *gorm.DB, model interface{}, section string) (bool, error) {
	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		utils.InfoLogger.WithField("section", section).Info("Seed data already exists, skipping...")
		return true, nil
	}
	return false, nil
}

func (s *Store) seedZones(tx *gorm.DB, zones []SeedZone) error {
	if done, err := alreadySeeded(tx, &models.Zone{}, "zones"); err != nil || done {
		return err
	}

	tables := 0
	for _, z := range zones {
		zone := models.Zone{Name: z.Name}
		if err := tx.Create(&zone).Error; err != nil {
			return fmt.Errorf("seed zone %q: %w", z.Name, err)
		}
		for _, t := range z.Tables {
			capacity := t.Capacity
			if capacity <= 0 {
				capacity = 4
			}
			table := models.Table{
				ZoneID:       zone.ID,
				Name:         t.Name,
				Code:         t.Code,
				Capacity:     capacity,
				Status:       models.TableStatusEmpty,
				CurrentTotal: decimal.Zero,
			}
			if err := tx.Omit("Zone").Create(&table).Error; err != nil {
				return fmt.Errorf("seed table %q: %w", t.Code, err)
			}
			tables++
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"zones":  len(zones),
		"tables": tables,
	}).Info("Seeded zones and tables")
	return nil
}

func (s *Store) seedUsers(tx *gorm.DB, users []SeedUser) error {
	if done, err := alreadySeeded(tx, &models.User{}, "users"); err != nil || done {
		return err
	}

	for _, u := range users {
		hashed, err := utils.HashPassword(u.Password, s.PasswordCost)
		if err != nil {
			return fmt.Errorf("hash password for %q: %w", u.Name, err)
		}
		role := u.Role
		if role == "" {
			role = models.RoleCaptain
		}
		user := models.User{Name: u.Name, Phone: u.Phone, Password: hashed, Role: role}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("seed user %q: %w", u.Name, err)
		}
	}

	utils.InfoLogger.WithField("users", len(users)).Info("Seeded users")
	return nil
}

func (s *Store) seedMenu(tx *gorm.DB, menu []SeedCategory) error {
	if done, err := alreadySeeded(tx, &models.Category{}, "menu"); err != nil || done {
		return err
	}

	dishes := 0
	for _, c := range menu {
		category := models.Category{Name: c.Category, SortOrder: c.SortOrder}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", c.Category, err)
		}

		for _, d := range c.Dishes {
			dish, err := buildDish(category.ID, d)
			if err != nil {
				return err
			}
			// Portions, add-ons and choices ikut tersimpan lewat asosiasi
			if err := tx.Create(&dish).Error; err != nil {
				return fmt.Errorf("seed dish %q: %w", d.Name, err)
			}
			dishes++
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"categories": len(menu),
		"dishes":     dishes,
	}).Info("Seeded menu")
	return nil
}

func buildDish(categoryID uint, d SeedDish) (models.Dish, error) {
	price, err := parsePrice(d.Name, d.Price)
	if err != nil {
		return models.Dish{}, err
	}

	dish := models.Dish{
		CategoryID:  categoryID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		IsVeg:       d.Veg,
		Available:   !d.Unavailable,
	}
	for _, p := range d.Portions {
		pp, err := parsePrice(d.Name+"/"+p.Name, p.Price)
		if err != nil {
			return models.Dish{}, err
		}
		dish.Portions = append(dish.Portions, models.Portion{Name: p.Name, Price: pp})
	}
	for _, a := range d.AddOns {
		addOn := models.AddOn{Name: a.Name}
		for _, ch := range a.Choices {
			cp, err := parsePrice(d.Name+"/"+ch.Name, ch.Price)
			if err != nil {
				return models.Dish{}, err
			}
			addOn.Choices = append(addOn.Choices, models.AddOnChoice{Name: ch.Name, Price: cp})
		}
		dish.AddOns = append(dish.AddOns, addOn)
	}
	return dish, nil
}

func parsePrice(label, raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("seed price for %q: %w", label, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("seed price for %q is negative", label)
	}
	return price, nil
}
