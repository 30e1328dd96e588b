// Package domain defines the core business entities of the application:
// users, subjects (a syllabus per subject), and the flashcards generated
// from them, along with their validation rules. Entities are plain structs;
// all scheduling behavior lives in the sm2 subpackage.
package domain
