package store

// CategoryBookCounts returns how many books each category holds. Books
// without a category come back with a nil CategoryID.
func (s *GormStore) CategoryBookCounts() ([]CategoryBookCount, error) {
	var rows []CategoryBookCount
	err := s.db.Model(&BookModel{}).
		Select("books.category_id AS category_id, COALESCE(categories.name, '') AS category_name, COUNT(books.id) AS book_count").
		Joins("LEFT JOIN categories ON categories.id = books.category_id").
		Group("books.category_id, categories.name").
		Order("book_count DESC").
		Scan(&rows).Error
	return rows, err
}
