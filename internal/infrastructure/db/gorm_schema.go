package db

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tablas del servicio. Solo se usan para AutoMigrate y para empleados;
// productos, paquetes y outbox se consultan con pgx.

type productRow struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;type:varchar(100);not null;index"`
	Barcode      *string   `gorm:"column:barcode;type:varchar(50);uniqueIndex"`
	Quantity     int       `gorm:"column:quantity;not null;default:0;check:chk_products_quantity,quantity >= 0"`
	Image        []byte    `gorm:"column:image;type:bytea"`
	CreatedAtUtc time.Time `gorm:"column:created_at_utc;not null"`
	UpdatedAtUtc time.Time `gorm:"column:updated_at_utc;not null"`
}

func (productRow) TableName() string { return "products" }

type packageRow struct {
	ID             int64         `gorm:"column:id;primaryKey;autoIncrement"`
	Branch         string        `gorm:"column:branch;type:varchar(100);not null;default:'Por asignar'"`
	Status         string        `gorm:"column:status;type:varchar(20);not null;index;check:chk_packages_status,status in ('DRAFT','CONFIRMED')"`
	CreatedAtUtc   time.Time     `gorm:"column:created_at_utc;not null;index"`
	ConfirmedAtUtc *time.Time    `gorm:"column:confirmed_at_utc"`
	Lines          []lineItemRow `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
}

func (packageRow) TableName() string { return "packages" }

type lineItemRow struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	PackageID   int64      `gorm:"column:package_id;not null;index"`
	ProductID   int64      `gorm:"column:product_id;not null;index"`
	Product     productRow `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	ProductName string     `gorm:"column:product_name;type:varchar(100);not null"`
	Quantity    int        `gorm:"column:quantity;not null;check:chk_line_items_quantity,quantity > 0"`
}

func (lineItemRow) TableName() string { return "package_line_items" }

type outboxRow struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Type           string     `gorm:"column:type;type:varchar(200);not null"`
	PayloadJSON    string     `gorm:"column:payload_json;type:text;not null"`
	OccurredAtUtc  time.Time  `gorm:"column:occurred_at_utc;not null;index"`
	RetryCount     int        `gorm:"column:retry_count;not null;default:0"`
	ProcessedAtUtc *time.Time `gorm:"column:processed_at_utc;index"`
}

func (outboxRow) TableName() string { return "outbox_messages" }

type employeeRow struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username      string    `gorm:"column:username;type:varchar(50);not null;uniqueIndex"`
	PasswordHash  string    `gorm:"column:password_hash;type:varchar(255);not null"`
	Phone         string    `gorm:"column:phone;type:varchar(20);not null"`
	Role          string    `gorm:"column:role;type:varchar(10);not null;default:'user'"`
	Active        bool      `gorm:"column:active;not null;default:true"`
	FirstName     string    `gorm:"column:first_name;type:varchar(50)"`
	LastName      string    `gorm:"column:last_name;type:varchar(50)"`
	SecondSurname string    `gorm:"column:second_surname;type:varchar(50)"`
	Email         string    `gorm:"column:email;type:varchar(100)"`
	Neighborhood  string    `gorm:"column:neighborhood;type:varchar(100)"`
	Street        string    `gorm:"column:street;type:varchar(100)"`
	ExteriorNo    string    `gorm:"column:exterior_no;type:varchar(10)"`
	Picture       []byte    `gorm:"column:picture;type:bytea"`
	RegisteredAt  time.Time `gorm:"column:registered_at;not null"`
}

func (employeeRow) TableName() string { return "employees" }

// OpenGorm opens the gorm connection used for migrations and employees.
func OpenGorm(dsn string) (*gorm.DB, error) {
	var lastErr error
	for i := range 10 {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			PrepareStmt: true,
			Logger:      logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Printf("DB: connection attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect postgres: %w", lastErr)
}

// Migrate creates or updates every table of the service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&productRow{},
		&packageRow{},
		&lineItemRow{},
		&outboxRow{},
		&employeeRow{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Printf("DB: schema migrated")
	return nil
}
