/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/serialize"
	"github.com/tomoncle/crudkit/types"
	"github.com/tomoncle/crudkit/validation"
)

type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Bio       string    `bun:"bio" json:"bio"`
	Email     string    `bun:"email" json:"email"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID          int64            `bun:"id,pk,autoincrement" json:"id"`
	Name        string           `bun:"name,notnull" json:"name"`
	Description string           `bun:"description" json:"description"`
	Price       float64          `bun:"price" json:"price"`
	InternalRef string           `bun:"internal_ref" json:"internalRef"`
	Attributes  types.JsonObject `bun:"attributes,type:text" json:"attributes"`
	ProfileID   int64            `bun:"profile_id,nullzero" json:"profileId"`
	Profile     *Profile         `bun:"rel:belongs-to,join:profile_id=id" json:"profile,omitempty"`
	CreatedAt   time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	DeletedAt   time.Time        `bun:",soft_delete,nullzero" json:"-"`
}

func init() {
	database.RegisterModel((*Profile)(nil), 10)
	database.RegisterModel((*Item)(nil), 20)
}

type createProfile struct {
	Name  string `json:"name" validate:"required,min=2,max=64"`
	Bio   string `json:"bio" validate:"max=512"`
	Email string `json:"email" validate:"omitempty,email"`
}

type updateProfile struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=64"`
	Bio   string `json:"bio" validate:"max=512"`
	Email string `json:"email" validate:"omitempty,email"`
}

type createItem struct {
	Name        string                 `json:"name" validate:"required,min=1,max=128"`
	Description string                 `json:"description" validate:"max=1024"`
	Price       float64                `json:"price" validate:"gte=0"`
	InternalRef string                 `json:"internalRef"`
	Attributes  map[string]interface{} `json:"attributes"`
	ProfileID   int64                  `json:"profileId" validate:"gte=0"`
}

type updateItem struct {
	Name        string                 `json:"name" validate:"omitempty,min=1,max=128"`
	Description string                 `json:"description" validate:"max=1024"`
	Price       float64                `json:"price" validate:"gte=0"`
	Attributes  map[string]interface{} `json:"attributes"`
}

var (
	createProfileShape = validation.ShapeOf[createProfile]("CreateProfile", validation.Schema{
		"name": "string", "bio": "string", "email": "string",
	})
	updateProfileShape = validation.ShapeOf[updateProfile]("UpdateProfile", validation.Schema{
		"name": "string", "bio": "string", "email": "string",
	})
	createItemShape = validation.ShapeOf[createItem]("CreateItem", validation.Schema{
		"name": "string", "description": "string", "price": "number",
		"internalRef": "string", "attributes": "object", "profileId": "number",
	})
	updateItemShape = validation.ShapeOf[updateItem]("UpdateItem", validation.Schema{
		"name": "string", "description": "string", "price": "number", "attributes": "object",
	})

	profileResponse = serialize.NewShape("Profile",
		serialize.Expose("id", "number"),
		serialize.Expose("name", "string"),
		serialize.Expose("bio", "string"),
		serialize.Expose("email", "string", "detail"),
		serialize.Expose("createdAt", "string"),
	)
	itemResponse = serialize.NewShape("Item",
		serialize.Expose("id", "number"),
		serialize.Expose("name", "string"),
		serialize.Expose("description", "string"),
		serialize.Expose("price", "number"),
		serialize.Expose("attributes", "object"),
		serialize.Expose("internalRef", "string", "admin"),
		serialize.Expose("createdAt", "string"),
		serialize.Nested("profile", profileResponse),
	)
)
