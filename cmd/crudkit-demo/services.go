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
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/tomoncle/crudkit"
	"github.com/tomoncle/crudkit/utils"
)

var log = utils.NewLogger("DEMO")

// ItemService stores uploaded files under dir and lists their names in the
// item's attributes.
type ItemService struct {
	crudkit.Service[Item]
	dir string
}

func NewItemService(dir string) *ItemService {
	return &ItemService{Service: crudkit.NewService[Item](), dir: dir}
}

func (s *ItemService) AttachFiles(ctx context.Context, item *Item, files []*multipart.FileHeader) error {
	target := filepath.Join(s.dir, "items", fmt.Sprint(item.ID))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	names := make([]interface{}, 0, len(files))
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if err := save(fh, filepath.Join(target, name)); err != nil {
			return err
		}
		names = append(names, name)
	}

	attributes := map[string]interface{}{}
	for k, v := range item.Attributes {
		attributes[k] = v
	}
	attributes["files"] = names
	if err := s.Update(ctx, item.ID, map[string]interface{}{"attributes": attributes}); err != nil {
		return fmt.Errorf("failed to record uploaded files: %w", err)
	}
	item.Attributes = attributes

	log.WithField("item_id", item.ID).Infof("Stored %d file(s)", len(names))
	return nil
}

func save(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
