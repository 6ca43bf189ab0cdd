package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")
var ErrEmailExists = errors.New("пользователь с таким email уже существует")
