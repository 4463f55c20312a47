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
Package errors provides the error taxonomy of the CRUD pipeline.

Two typed errors are raised by the pipeline itself and can be checked with the
standard errors.Is function or the helpers:

	ValidationError -> ErrValidation (HTTP 400)
	NotFoundError   -> ErrNotFound   (HTTP 404)

Anything else, typically an error returned by the database, is passed through
untouched and reported to clients as a server failure.
*/
package errors
