package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// ClientRepositoryInterface defines methods used by service
type ClientRepositoryInterface interface {
	Create(c *model.Client) error
	GetByID(id uuid.UUID) (*model.Client, error)
	ListAll() ([]model.Client, error)
}

// ClientRepository is the concrete implementation
type ClientRepository struct {
	DB *sql.DB
}

func (r *ClientRepository) Create(c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO clients (id, name, description, created_at)
        VALUES ($1, $2, $3, $4)
    `
	_, err := r.DB.Exec(query, c.ID, c.Name, c.Description, c.CreatedAt)
	return err
}

func (r *ClientRepository) GetByID(id uuid.UUID) (*model.Client, error) {
	query := `SELECT id, name, description, created_at FROM clients WHERE id=$1`
	var c model.Client
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) ListAll() ([]model.Client, error) {
	rows, err := r.DB.Query(`SELECT id, name, description, created_at FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
