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

/*
Package server assembles the gin engine that hosts crudkit controllers.

	srv := server.New(cfg.Server, nil)
	srv.Register(controller.New[Item](crudkit.NewService[Item](), opts))
	go srv.Start(ctx)
	defer srv.Stop(context.Background())

Every request passes through request id, access logging and panic recovery
middleware. The handler served is wrapped with CORS handling, and
GET /healthz reports the state of the database connection.
*/
package server
